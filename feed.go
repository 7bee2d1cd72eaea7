package identity

import (
	"context"
	"iter"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultFeedPageSize is the number of microposts per feed page.
const DefaultFeedPageSize = 30

// Feed is a restartable view over an account's feed. It keeps no cursor:
// each call queries the store again, newest first.
type Feed struct {
	store    GraphStore
	ownerID  uuid.UUID
	pageSize int
	err      error
}

// WithPageSize changes the page size. Values below one are ignored.
func (f *Feed) WithPageSize(size int) *Feed {
	if size > 0 {
		f.pageSize = size
	}
	return f
}

// OwnerID is the account the feed belongs to.
func (f *Feed) OwnerID() uuid.UUID {
	return f.ownerID
}

// Sources returns the owner id followed by every followed account id.
func (f *Feed) Sources(ctx context.Context) ([]uuid.UUID, error) {
	followed, err := f.followed(ctx)
	if err != nil {
		return nil, err
	}
	return append([]uuid.UUID{f.ownerID}, followed...), nil
}

// Page returns page number page, starting at 1.
func (f *Feed) Page(ctx context.Context, page int) ([]*Micropost, error) {
	if page < 1 {
		page = 1
	}

	followed, err := f.followed(ctx)
	if err != nil {
		return nil, err
	}

	return f.query(ctx, followed, (page-1)*f.pageSize)
}

// All walks the whole feed page by page. Every call starts over from the
// newest item.
func (f *Feed) All(ctx context.Context) iter.Seq2[*Micropost, error] {
	return func(yield func(*Micropost, error) bool) {
		followed, err := f.followed(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		for offset := 0; ; offset += f.pageSize {
			posts, err := f.query(ctx, followed, offset)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, post := range posts {
				if !yield(post, nil) {
					return
				}
			}

			if len(posts) < f.pageSize {
				return
			}
		}
	}
}

func (f *Feed) followed(ctx context.Context) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}

	ids, err := f.store.FollowingIDs(ctx, f.ownerID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve feed sources")
	}
	return ids, nil
}

func (f *Feed) query(ctx context.Context, followed []uuid.UUID, offset int) ([]*Micropost, error) {
	posts, err := f.store.QueryFeed(ctx, FeedQuery{
		OwnerID:     f.ownerID,
		FollowedIDs: followed,
		Limit:       f.pageSize,
		Offset:      offset,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query feed")
	}
	return posts, nil
}
