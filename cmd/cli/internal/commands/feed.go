package commands

import (
	"context"
	"fmt"

	"github.com/refconnect/refconnect-cli/internal/feed"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

type FeedCmd struct {
	List    FeedListCmd    `cmd:"" help:"Show the feed"`
	Create  FeedCreateCmd  `cmd:"" help:"Create a post"`
	Delete  FeedDeleteCmd  `cmd:"" help:"Delete a post"`
	Like    FeedLikeCmd    `cmd:"" help:"Like a post"`
	Unlike  FeedUnlikeCmd  `cmd:"" help:"Remove a like"`
	Comment FeedCommentCmd `cmd:"" help:"Comment on a post"`
}

type FeedListCmd struct{}

func (f *FeedListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Feed.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}

	posts := env.Feed.Posts()
	for _, p := range posts {
		author := p.User.DisplayName()
		if author == "" {
			author = env.Profiles.Get(ctx, p.UserID).DisplayName()
		}
		if author == "" {
			author = p.UserID
		}

		fmt.Printf("%s  %s  (%d likes, %d comments)\n", p.PostID, formatTime(p.CreatedAt.Time), p.LikeCount, len(p.Comments))
		fmt.Printf("  %s: %s\n", author, truncate(p.Description, 100))
		for _, c := range p.Comments {
			name := env.Profiles.Get(ctx, c.UserID).DisplayName()
			if name == "" {
				name = c.UserID
			}
			fmt.Printf("    %s: %s\n", name, truncate(c.Content, 80))
		}
	}

	fmt.Printf("\nTotal posts: %d\n", len(posts))
	return nil
}

type FeedCreateCmd struct {
	Description string `arg:"" help:"Post text"`
	Media       string `help:"Path to an image or video to attach"`
}

func (f *FeedCreateCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	params := wire.CreatePost{Description: f.Description}

	if f.Media != "" {
		url, err := env.Uploader.Upload(ctx, f.Media)
		if err != nil {
			return fmt.Errorf("failed to upload media: %w", err)
		}
		params.MediaURL = url
		params.MediaType = "image"
	}

	post, err := env.Feed.Create(ctx, params)
	if err != nil {
		if err == feed.ErrContentFlagged {
			return fmt.Errorf("post rejected: %s", env.Feed.Err())
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	fmt.Printf("Posted %s\n", post.PostID)
	return nil
}

type FeedDeleteCmd struct {
	PostID string `arg:"" help:"Post id"`
}

func (f *FeedDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Feed.Delete(ctx, f.PostID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	fmt.Println("Post deleted")
	return nil
}

type FeedLikeCmd struct {
	PostID string `arg:"" help:"Post id"`
}

func (f *FeedLikeCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if _, err := env.Feed.Like(ctx, f.PostID); err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}

	fmt.Println("Liked")
	return nil
}

type FeedUnlikeCmd struct {
	PostID string `arg:"" help:"Post id"`
}

func (f *FeedUnlikeCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if _, err := env.Feed.Unlike(ctx, f.PostID); err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}

	fmt.Println("Unliked")
	return nil
}

type FeedCommentCmd struct {
	PostID  string `arg:"" help:"Post id"`
	Content string `arg:"" help:"Comment text"`
	ReplyTo string `help:"Parent comment id for a reply"`
}

func (f *FeedCommentCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	comment, err := env.Feed.AddComment(ctx, f.PostID, f.Content, f.ReplyTo)
	if err != nil {
		if err == feed.ErrContentFlagged {
			return fmt.Errorf("comment rejected: %s", env.Feed.Err())
		}
		return fmt.Errorf("failed to comment: %w", err)
	}

	fmt.Printf("Comment %s added\n", comment.CommentID)
	return nil
}
