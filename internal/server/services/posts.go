package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/dbx"
	"github.com/dmitrijs2005/rustytech/internal/logging"
	"github.com/dmitrijs2005/rustytech/internal/server/content"
	"github.com/dmitrijs2005/rustytech/internal/server/media"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/keywords"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/repomanager"
)

// MediaStore uploads post attachments and links to them.
type MediaStore interface {
	UploadImage(ctx context.Context, data []byte) (*media.Uploaded, error)
	UploadVideo(ctx context.Context, filename string, data []byte) (*media.Uploaded, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       MediaStore
	log         logging.Logger
	now         func() time.Time
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, ms MediaStore, l logging.Logger) *PostService {
	return &PostService{db: db, repomanager: m, media: ms, log: l, now: time.Now}
}

// CreatePost stores a new published post of the given type. Attachments are
// uploaded before the transaction starts and removed again when it fails;
// blog posts take any number of images, image and video posts exactly one
// file. The title is stored as plain text.
func (s *PostService) CreatePost(ctx context.Context, postType models.PostType, req CreatePostRequest) (ResponseBase, error) {
	if req.UserID == "" {
		return ResponseBase{}, badRequest(common.MsgUserIDRequired)
	}
	if !validID(req.UserID) {
		return ResponseBase{}, notFound(common.MsgUserNotFound)
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgUserNotFound)
		}
		return ResponseBase{}, err
	}
	if !user.IsVerified() {
		return ResponseBase{}, reject(common.ErrorForbidden, common.MsgUserNotVerified)
	}
	req.Title = content.PlainText(req.Title)
	if err := validateStruct(req); err != nil {
		return ResponseBase{}, err
	}

	now := s.now().UTC()
	body := content.Sanitize(req.Content)
	post := &models.Post{
		UserID:           user.ID,
		Type:             postType,
		Title:            req.Title,
		Content:          body,
		PlainTextContent: content.PlainText(body),
		IsPublished:      true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.attachMedia(ctx, post, req.Files); err != nil {
		s.discardMedia(ctx, post)
		return ResponseBase{}, err
	}

	words := content.NormalizeKeywords(req.Keywords)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Posts(tx).Create(ctx, post)
		if err != nil {
			return err
		}
		return attachKeywords(ctx, s.repomanager.Keywords(tx), created.ID, words)
	})
	if err != nil {
		s.discardMedia(ctx, post)
		return ResponseBase{}, err
	}

	s.log.Info(ctx, "post created", "post_id", post.ID, "type", string(postType))
	return ok(common.MsgPostCreated), nil
}

func (s *PostService) attachMedia(ctx context.Context, post *models.Post, files []File) error {
	switch post.Type {
	case models.PostTypeBlog:
		for _, f := range files {
			up, err := s.media.UploadImage(ctx, f.Data)
			if err != nil {
				return uploadFailure(err)
			}
			post.ImageURLs = append(post.ImageURLs, up.Key)
		}
	case models.PostTypeImage:
		if len(files) != 1 {
			return badRequest(common.MsgDataRecheck)
		}
		up, err := s.media.UploadImage(ctx, files[0].Data)
		if err != nil {
			return uploadFailure(err)
		}
		post.ImageURL = up.Key
	case models.PostTypeVideo:
		if len(files) != 1 {
			return badRequest(common.MsgDataRecheck)
		}
		up, err := s.media.UploadVideo(ctx, files[0].Name, files[0].Data)
		if err != nil {
			return uploadFailure(err)
		}
		post.VideoURL = up.Key
	default:
		return badRequest(common.MsgBadRequest)
	}
	return nil
}

// discardMedia removes the stored objects a post refers to. Failures are
// logged; the objects are orphaned but harmless.
func (s *PostService) discardMedia(ctx context.Context, post *models.Post) {
	keys := append(slices.Clone(post.ImageURLs), post.ImageURL, post.VideoURL)
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.media.Delete(ctx, key); err != nil {
			s.log.Error(ctx, "media not removed", "key", key, "error", err)
		}
	}
}

func uploadFailure(err error) error {
	if errors.Is(err, media.ErrUnsupportedType) {
		return badRequest(common.MsgUnsupportedMedia)
	}
	return err
}

// GetAll returns published posts, or every post when published is false,
// newest first.
func (s *PostService) GetAll(ctx context.Context, published bool) ([]*PostDTO, error) {
	repo := s.repomanager.Posts(s.db)

	var (
		posts []*models.Post
		err   error
	)
	if published {
		posts, err = repo.List(ctx, true)
	} else {
		posts, err = repo.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, posts)
}

func (s *PostService) ListByUser(ctx context.Context, userID string) ([]*PostDTO, error) {
	posts, err := s.repomanager.Posts(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, posts)
}

func (s *PostService) GetByID(ctx context.Context, id string) (*PostDTO, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, post)
}

// Search returns published posts whose title contains query, ignoring case.
func (s *PostService) Search(ctx context.Context, query string) ([]*PostDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, badRequest(common.MsgSearchQueryRequired)
	}
	posts, err := s.repomanager.Posts(s.db).Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, posts)
}

// Edit updates title, content and keywords of a post owned by req.UserID.
// A nil Keywords slice leaves the keyword set untouched, an empty one clears it.
func (s *PostService) Edit(ctx context.Context, req UpdatePostRequest) (ResponseBase, error) {
	post, err := s.findPost(ctx, req.ID)
	if err != nil {
		return ResponseBase{}, err
	}
	if post.UserID != req.UserID {
		return ResponseBase{}, reject(common.ErrorForbidden, common.MsgUnauthorized)
	}
	req.Title = content.PlainText(req.Title)
	if err := validateStruct(req); err != nil {
		return ResponseBase{}, err
	}

	body := content.Sanitize(req.Content)
	post.Title = req.Title
	post.Content = body
	post.PlainTextContent = content.PlainText(body)
	post.UpdatedAt = s.now().UTC()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Posts(tx).Update(ctx, post); err != nil {
			return err
		}
		if req.Keywords == nil {
			return nil
		}

		words := content.NormalizeKeywords(req.Keywords)
		kw := s.repomanager.Keywords(tx)
		current, err := kw.ListForPost(ctx, post.ID)
		if err != nil {
			return err
		}
		var keep []string
		for _, k := range current {
			if slices.Contains(words, k.Text) {
				keep = append(keep, k.Text)
				continue
			}
			if err := kw.Detach(ctx, post.ID, k.ID); err != nil {
				return err
			}
		}

		var added []string
		for _, w := range words {
			if !slices.Contains(keep, w) {
				added = append(added, w)
			}
		}
		return attachKeywords(ctx, kw, post.ID, added)
	})
	if err != nil {
		return ResponseBase{}, err
	}

	return ok(common.MsgPostUpdated), nil
}

// Delete removes a post. Only its author or an admin may do so. Keyword
// links are dropped by the database, stored media afterwards.
func (s *PostService) Delete(ctx context.Context, req DeletePostRequest) (ResponseBase, error) {
	post, err := s.findPost(ctx, req.PostID)
	if err != nil {
		return ResponseBase{}, err
	}
	if post.UserID != req.UserID && !isAdmin(req.Roles) {
		return ResponseBase{}, reject(common.ErrorForbidden, common.MsgUnauthorized)
	}

	if err := s.repomanager.Posts(s.db).Delete(ctx, post.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgPostNotFound)
		}
		return ResponseBase{}, err
	}
	s.discardMedia(ctx, post)

	s.log.Info(ctx, "post deleted", "post_id", post.ID, "by", req.UserID)
	return ok(common.MsgPostDeleted), nil
}

func isAdmin(roles []string) bool {
	return slices.Contains(roles, models.RoleAdmin) || slices.Contains(roles, models.RoleSuperAdmin)
}

func (s *PostService) TogglePublished(ctx context.Context, postID string) (ResponseBase, error) {
	if postID == "" {
		return ResponseBase{}, badRequest(common.MsgIDRequired)
	}
	if !validID(postID) {
		return ResponseBase{}, notFound(common.MsgPostNotFound)
	}
	published, err := s.repomanager.Posts(s.db).TogglePublished(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResponseBase{}, notFound(common.MsgPostNotFound)
		}
		return ResponseBase{}, err
	}
	s.log.Info(ctx, "post publish state changed", "post_id", postID, "published", published)
	return ok(fmt.Sprintf("Post %s publish status: %t", postID, published)), nil
}

func (s *PostService) GetAllKeywords(ctx context.Context) ([]string, error) {
	list, err := s.repomanager.Keywords(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	return keywordTexts(list), nil
}

func (s *PostService) GetPostKeywords(ctx context.Context, postID string) ([]string, error) {
	if !validID(postID) {
		return []string{}, nil
	}
	list, err := s.repomanager.Keywords(s.db).ListForPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return keywordTexts(list), nil
}

func (s *PostService) findPost(ctx context.Context, id string) (*models.Post, error) {
	if id == "" {
		return nil, badRequest(common.MsgIDRequired)
	}
	if !validID(id) {
		return nil, notFound(common.MsgPostNotFound)
	}
	post, err := s.repomanager.Posts(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound(common.MsgPostNotFound)
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) toDTOs(ctx context.Context, posts []*models.Post) ([]*PostDTO, error) {
	result := make([]*PostDTO, 0, len(posts))
	for _, p := range posts {
		dto, err := s.toDTO(ctx, p)
		if err != nil {
			return nil, err
		}
		result = append(result, dto)
	}
	return result, nil
}

// toDTO loads the post keywords and swaps stored object keys for download URLs.
func (s *PostService) toDTO(ctx context.Context, p *models.Post) (*PostDTO, error) {
	kws, err := s.repomanager.Keywords(s.db).ListForPost(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	dto := &PostDTO{
		ID:               p.ID,
		UserID:           p.UserID,
		PostType:         string(p.Type),
		Title:            p.Title,
		Content:          p.Content,
		PlainTextContent: p.PlainTextContent,
		IsPublished:      p.IsPublished,
		Keywords:         keywordTexts(kws),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}

	for _, key := range p.ImageURLs {
		u, err := s.link(ctx, key)
		if err != nil {
			return nil, err
		}
		dto.ImageURLs = append(dto.ImageURLs, u)
	}
	if dto.ImageURL, err = s.link(ctx, p.ImageURL); err != nil {
		return nil, err
	}
	if dto.VideoURL, err = s.link(ctx, p.VideoURL); err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *PostService) link(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.media.PresignGet(ctx, key)
}

func attachKeywords(ctx context.Context, repo keywords.Repository, postID string, words []string) error {
	for _, w := range words {
		k, err := repo.GetOrCreate(ctx, w)
		if err != nil {
			return err
		}
		if err := repo.Attach(ctx, postID, k.ID); err != nil {
			return err
		}
	}
	return nil
}

func keywordTexts(list []*models.Keyword) []string {
	out := make([]string, 0, len(list))
	for _, k := range list {
		out = append(out, k.Text)
	}
	return out
}
