// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations and their transcript entries.
//
// # Key Types
//
//   - Conversation: one chat transcript; the empty id marks the default
//     conversation the user lands in before the backend assigns one
//   - Message: a single transcript entry discriminated by Kind
//     (user, assistant, options, notice)
//   - Option: one selectable entry of an options message
//   - Feedback: the user's rating of an assistant message
//
// # Usage
//
// Create a conversation and post a prompt:
//
//	conv := model.New("Здравствуйте! Чем могу помочь?")
//	conv.Add(model.NewUserMessage("Как оплатить налог?"))
//	placeholder := model.NewAssistantMessage()
//	conv.Add(placeholder)
//
// The placeholder id is created before the request goes out, so streamed
// events can always be routed to the right message.
package model
