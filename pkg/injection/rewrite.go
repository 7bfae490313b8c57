package injection

import (
	"fmt"

	"siphon/pkg/wireproto"
)

// fieldUserRequest, fieldConversationHistory, fieldConversationEntry are
// the field numbers of the three-level path this rewrite walks:
// outer.1 (user_request) -> user_request.3 (conversation_history) ->
// conversation_history.3 (conversation_entry, repeated).
const (
	fieldUserRequest         = 1
	fieldConversationHistory = 3
	fieldConversationEntry   = 3

	injectedFileNameField = 1
	injectedContentField  = 2
	injectedKindField     = 5
)

const injectedFileName = "system-context.md"

// rewriteChatPayload inserts a synthesized conversation_entry, carrying
// injectionText, as the first element of outer.1.3.3's repeated list.
// Every other field at every level, and every existing entry, is copied
// byte-for-byte from its raw wire encoding. It returns an error if the
// expected nested structure is not present; callers must treat that as
// "forward the original bytes unchanged", never as a fatal condition.
func rewriteChatPayload(payload []byte, injectionText string) ([]byte, error) {
	outerFields, err := wireproto.ParseFields(payload)
	if err != nil {
		return nil, fmt.Errorf("parse outer message: %w", err)
	}
	userRequest, ok := wireproto.FindFirst(outerFields, fieldUserRequest)
	if !ok {
		return nil, fmt.Errorf("outer message missing field %d (user_request)", fieldUserRequest)
	}

	userRequestFields, err := wireproto.ParseFields(userRequest.DataSlice)
	if err != nil {
		return nil, fmt.Errorf("parse user_request: %w", err)
	}
	convHistory, ok := wireproto.FindFirst(userRequestFields, fieldConversationHistory)
	if !ok {
		return nil, fmt.Errorf("user_request missing field %d (conversation_history)", fieldConversationHistory)
	}

	convHistoryFields, err := wireproto.ParseFields(convHistory.DataSlice)
	if err != nil {
		return nil, fmt.Errorf("parse conversation_history: %w", err)
	}

	newEntry := buildInjectedEntry(injectionText)
	newEntryRaw := wireproto.AppendLenField(nil, fieldConversationEntry, newEntry)

	newConvHistoryBody := rebuildWithInsertion(convHistoryFields, fieldConversationEntry, newEntryRaw)
	newConvHistoryRaw := wireproto.AppendLenField(nil, fieldConversationHistory, newConvHistoryBody)

	newUserRequestBody := replaceField(userRequestFields, fieldConversationHistory, newConvHistoryRaw)
	newUserRequestRaw := wireproto.AppendLenField(nil, fieldUserRequest, newUserRequestBody)

	newOuterBody := replaceField(outerFields, fieldUserRequest, newUserRequestRaw)
	return newOuterBody, nil
}

// buildInjectedEntry encodes the synthesized conversation_entry: a
// context-file attachment shape, not a chat message, per the fields the
// upstream accepts for client-supplied context.
func buildInjectedEntry(injectionText string) []byte {
	var buf []byte
	buf = wireproto.AppendStringField(buf, injectedFileNameField, injectedFileName)
	buf = wireproto.AppendStringField(buf, injectedContentField, "**System Context**\n\n"+injectionText)
	buf = wireproto.AppendVarintField(buf, injectedKindField, 0)
	return buf
}

// rebuildWithInsertion concatenates every field's raw bytes in order,
// splicing insertRaw immediately before the first occurrence of
// repeatedNumber. If repeatedNumber never occurs, insertRaw is appended
// at the end, so an empty repeated list still gets the new entry.
func rebuildWithInsertion(fields []wireproto.Field, repeatedNumber uint32, insertRaw []byte) []byte {
	var out []byte
	inserted := false
	for _, f := range fields {
		if f.Number == repeatedNumber && !inserted {
			out = append(out, insertRaw...)
			inserted = true
		}
		out = append(out, f.RawSlice...)
	}
	if !inserted {
		out = append(out, insertRaw...)
	}
	return out
}

// replaceField concatenates every field's raw bytes in order, substituting
// replacement for the first occurrence of number and copying every other
// field verbatim.
func replaceField(fields []wireproto.Field, number uint32, replacement []byte) []byte {
	var out []byte
	replaced := false
	for _, f := range fields {
		if f.Number == number && !replaced {
			out = append(out, replacement...)
			replaced = true
			continue
		}
		out = append(out, f.RawSlice...)
	}
	return out
}
