package chat

import "context"

type RefKind int

const (
	RefSurrogate RefKind = iota + 1
	RefPublic
)

// ChatRef is a client-supplied chat reference after classification.
type ChatRef struct {
	Kind     RefKind
	ID       int64
	PublicID string
}

// ParseChatRef classifies identifier. Anything that parses as a base-10
// integer is a surrogate id, never a public id.
func ParseChatRef(identifier string) ChatRef {
	if n, ok := parseSurrogate(identifier); ok {
		return ChatRef{Kind: RefSurrogate, ID: n}
	}
	return ChatRef{Kind: RefPublic, PublicID: identifier}
}

// Resolver maps a chat reference to exactly one stored chat.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) Resolve(ctx context.Context, identifier string) (*Chat, error) {
	ref := ParseChatRef(identifier)
	switch ref.Kind {
	case RefSurrogate:
		if ref.ID <= 0 {
			return nil, ErrNotFound
		}
		return r.store.GetChat(ctx, uint64(ref.ID))
	default:
		if ref.PublicID == "" {
			return nil, ErrNotFound
		}
		return r.store.GetChatByPublicID(ctx, ref.PublicID)
	}
}
