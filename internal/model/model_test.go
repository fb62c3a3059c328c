// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Привет")

	if msg.Kind != KindUser {
		t.Errorf("Kind = %q, want user", msg.Kind)
	}

	if msg.Text != "Привет" {
		t.Errorf("Text = %q", msg.Text)
	}

	if msg.ID == "" {
		t.Error("ID should be generated at creation")
	}
}

func TestNewAssistantMessage_Streaming(t *testing.T) {
	msg := NewAssistantMessage()

	if msg.Kind != KindAssistant {
		t.Errorf("Kind = %q, want assistant", msg.Kind)
	}

	if !msg.Streaming {
		t.Error("placeholder should start streaming")
	}

	msg.SetText("частичный ответ")
	msg.FinishStream()

	if msg.Streaming {
		t.Error("FinishStream should clear streaming")
	}

	if msg.Text != "частичный ответ" {
		t.Errorf("Text = %q", msg.Text)
	}
}

func TestMessage_Rated(t *testing.T) {
	msg := NewAssistantText("ответ")
	if msg.Rated() {
		t.Error("fresh message should not be rated")
	}

	msg.Feedback = FeedbackBad
	if !msg.Rated() {
		t.Error("message with feedback should be rated")
	}

	// Only assistant messages can carry ratings.
	user := NewUserMessage("x")
	user.Feedback = FeedbackGood
	if user.Rated() {
		t.Error("user message should never count as rated")
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short", "привет", 50, "привет"},
		{"newlines flattened", "a\nb", 50, "a b"},
		{"cyrillic truncation", "аааааааааа", 8, "ааааа..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := NewUserMessage(tc.text)
			if got := msg.Preview(tc.max); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.max, got, tc.want)
			}
		})
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNew_GreetingFirst(t *testing.T) {
	conv := New("Здравствуйте!")

	if !conv.IsDefault() {
		t.Error("fresh conversation should be the default one")
	}

	if len(conv.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(conv.Messages))
	}

	first := conv.Messages[0]
	if first.Kind != KindAssistant || first.Text != "Здравствуйте!" {
		t.Errorf("greeting = %+v", first)
	}
}

func TestConversation_EjectOptions(t *testing.T) {
	conv := New("hi")
	conv.Add(NewOptionsMessage([]Option{{Value: "Налоги", Label: "Налоги"}}))
	conv.Add(NewUserMessage("вопрос"))
	conv.Add(NewOptionsMessage([]Option{{Value: "ИПН", Label: "ИПН"}}))

	conv.EjectOptions()

	for _, msg := range conv.Messages {
		if msg.Kind == KindOptions {
			t.Fatal("options message survived ejection")
		}
	}

	if len(conv.Messages) != 2 {
		t.Errorf("messages = %d, want greeting + user", len(conv.Messages))
	}
}

func TestConversation_ServerIndex(t *testing.T) {
	conv := New("greeting")
	user := NewUserMessage("вопрос")
	conv.Add(user)
	conv.Add(NewOptionsMessage(nil))
	bot := NewAssistantText("ответ")
	conv.Add(bot)
	notice := NewNoticeMessage("подсказка")
	conv.Add(notice)

	if got := conv.ServerIndex(user.ID); got != 0 {
		t.Errorf("user index = %d, want 0", got)
	}

	// Options and notices are invisible to the backend's numbering.
	if got := conv.ServerIndex(bot.ID); got != 1 {
		t.Errorf("assistant index = %d, want 1", got)
	}

	if got := conv.ServerIndex(notice.ID); got != -1 {
		t.Errorf("notice index = %d, want -1", got)
	}

	if got := conv.ServerIndex(conv.Messages[0].ID); got != -1 {
		t.Errorf("greeting index = %d, want -1", got)
	}
}

func TestConversation_RefreshGreeting(t *testing.T) {
	conv := New("Здравствуйте!")
	id := conv.Messages[0].ID

	conv.RefreshGreeting("Сәлеметсіз бе!")

	if conv.Messages[0].Text != "Сәлеметсіз бе!" {
		t.Errorf("greeting = %q", conv.Messages[0].Text)
	}

	if conv.Messages[0].ID != id {
		t.Error("greeting should keep its id across locale changes")
	}
}

func TestConversation_TitleFromFirstUserMessage(t *testing.T) {
	conv := New("hi")
	conv.Add(NewUserMessage("Как открыть ИП?"))

	if conv.Title != "Как открыть ИП?" {
		t.Errorf("Title = %q", conv.Title)
	}

	// Backend titles win once assigned.
	conv.SetTitle("Регистрация ИП")
	if conv.DisplayTitle("Новый чат") != "Регистрация ИП" {
		t.Errorf("DisplayTitle = %q", conv.DisplayTitle("Новый чат"))
	}

	// Empty backend title is ignored.
	conv.SetTitle("")
	if conv.Title != "Регистрация ИП" {
		t.Errorf("Title = %q after empty SetTitle", conv.Title)
	}
}

func TestConversation_InactiveSince(t *testing.T) {
	conv := New("hi")
	conv.UpdatedAt = time.Now().Add(-8 * 24 * time.Hour)

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	if !conv.InactiveSince(cutoff) {
		t.Error("stale conversation should be inactive")
	}

	conv.Touch()
	if conv.InactiveSince(cutoff) {
		t.Error("touched conversation should be active")
	}
}

func TestConversation_PruneKeepsGreeting(t *testing.T) {
	conv := New("greeting")
	greetingID := conv.Messages[0].ID

	for i := 0; i < MaxMessages+10; i++ {
		conv.Add(NewUserMessage("x"))
	}

	if len(conv.Messages) > MaxMessages {
		t.Errorf("messages = %d, want <= %d", len(conv.Messages), MaxMessages)
	}

	if conv.Messages[0].ID != greetingID {
		t.Error("greeting should survive pruning")
	}
}

func TestConversation_Clone(t *testing.T) {
	conv := New("hi")
	conv.ID = "42"
	conv.Add(NewOptionsMessage([]Option{{Value: "a", Label: "a"}}))

	clone := conv.Clone()
	clone.Messages[1].Options[0].Label = "mutated"
	clone.Messages[0].Text = "mutated"

	if conv.Messages[1].Options[0].Label == "mutated" {
		t.Error("clone shares option slice with original")
	}

	if conv.Messages[0].Text == "mutated" {
		t.Error("clone shares message pointers with original")
	}
}
