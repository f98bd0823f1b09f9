package chat

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestRepo_CreateAndLookupBothWays(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.CreateChat(ctx, "Trip planning", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if c.ID == 0 || c.PublicID == "" {
		t.Fatalf("expected ids to be assigned: %+v", c)
	}
	if _, err := strconv.ParseInt(c.PublicID, 10, 64); err == nil {
		t.Fatalf("public id %q parses as an integer", c.PublicID)
	}

	byID, err := repo.GetChat(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	byPublic, err := repo.GetChatByPublicID(ctx, c.PublicID)
	if err != nil {
		t.Fatalf("get chat by public id: %v", err)
	}
	if byID.ID != byPublic.ID || byID.PublicID != byPublic.PublicID {
		t.Fatalf("lookups disagree: %+v vs %+v", byID, byPublic)
	}
	if byID.Title != "Trip planning" || byID.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected fields: %+v", byID)
	}
}

func TestRepo_CreateChatRejectsEmptyTitle(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.CreateChat(context.Background(), "  ", "gpt-4o-mini"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	chats, err := repo.ListChats(context.Background())
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("expected no chats, got %d", len(chats))
	}
}

func TestRepo_ListChatsInCreationOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		if _, err := repo.CreateChat(ctx, title, "m"); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	chats, err := repo.ListChats(ctx)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 3 || chats[0].Title != "a" || chats[2].Title != "c" {
		t.Fatalf("unexpected order: %+v", chats)
	}
}

func TestRepo_UpdateChatPartial(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.CreateChat(ctx, "old", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	title := "new"
	updated, err := repo.UpdateChat(ctx, c.ID, ChatUpdate{Title: &title})
	if err != nil {
		t.Fatalf("update chat: %v", err)
	}
	if updated.Title != "new" || updated.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.PublicID != c.PublicID {
		t.Fatalf("public id changed on update")
	}

	if _, err := repo.UpdateChat(ctx, c.ID+100, ChatUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_UpdateChatEmptyTitleLeavesRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.CreateChat(ctx, "keep me", "m")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	empty := ""
	if _, err := repo.UpdateChat(ctx, c.ID, ChatUpdate{Title: &empty}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	got, err := repo.GetChat(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if got.Title != "keep me" {
		t.Fatalf("title changed to %q", got.Title)
	}
}

func TestRepo_MessagesOrderedAndCascaded(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.CreateChat(ctx, "t", "m")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	other, err := repo.CreateChat(ctx, "other", "m")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	base := time.Now()
	// inserted out of order on purpose
	for i, off := range []int{2, 0, 1} {
		m := &Message{
			ChatID:    c.ID,
			Role:      RoleUser,
			Content:   strconv.Itoa(off),
			Username:  "alice",
			Model:     "m",
			CreatedAt: base.Add(time.Duration(off) * time.Second),
		}
		if err := repo.InsertMessage(ctx, m); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := repo.InsertMessage(ctx, &Message{ChatID: other.ID, Role: RoleUser, Content: "x", Username: "bob", Model: "m"}); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	msgs, err := repo.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Content != "0" || msgs[1].Content != "1" || msgs[2].Content != "2" {
		t.Fatalf("unexpected order: %+v", msgs)
	}

	recent, err := repo.ListRecentMessagesDesc(ctx, c.ID, 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Content != "2" || recent[1].Content != "1" {
		t.Fatalf("unexpected recent: %+v", recent)
	}

	if err := repo.DeleteChat(ctx, c.ID); err != nil {
		t.Fatalf("delete chat: %v", err)
	}
	msgs, err = repo.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("list messages after delete: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected messages to be removed, got %d", len(msgs))
	}
	otherMsgs, _ := repo.ListMessages(ctx, other.ID)
	if len(otherMsgs) != 1 {
		t.Fatalf("delete touched another chat's messages")
	}

	// absent chat: no-op
	if err := repo.DeleteChat(ctx, c.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestRepo_InsertMessageValidates(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.InsertMessage(context.Background(), &Message{ChatID: 1, Role: "system", Content: "x"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad role, got %v", err)
	}
	err = repo.InsertMessage(context.Background(), &Message{Role: RoleUser, Content: "x"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing chat, got %v", err)
	}
}
