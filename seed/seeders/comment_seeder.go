package seeders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/moderation"
	"github.com/nesivarusta/nvu_api/services/repositories"
	log "github.com/sirupsen/logrus"
)

type sampleComment struct {
	author  string
	content string
	status  model.CommentStatus
	score   float64
	likes   int
}

var sampleComments = []sampleComment{
	{"Mehmet", "Same P0420 code on my Corolla, replacing the downstream O2 sensor fixed it.", model.CommentApproved, 0.92, 12},
	{"Ayse", "Check the exhaust for leaks before buying a new catalytic converter.", model.CommentApproved, 0.88, 7},
	{"Can", "Had this after a cheap fuel fill-up, it cleared itself after two tanks.", model.CommentApproved, 0.74, 3},
	{"Elif", "Does this code also cause rough idle or only the check engine light?", model.CommentPending, 0.65, 0},
	{"Burak", "My mechanic quoted a full exhaust replacement, is that normal for this code?", model.CommentPending, 0.58, 0},
}

// CommentSeeder inserts demo comments for local development
type CommentSeeder struct {
	comments *repositories.CommentRepository
}

func NewCommentSeeder(comments *repositories.CommentRepository) *CommentSeeder {
	return &CommentSeeder{comments: comments}
}

// SeedComments adds the sample thread to each resource. Resources that already
// carry a seeded thread are skipped.
func (s *CommentSeeder) SeedComments(ctx context.Context, resourceIDs []int) (int, error) {
	created := 0
	now := time.Now().UTC()

	for _, resourceID := range resourceIDs {
		for i, sample := range sampleComments {
			fingerprint := fmt.Sprintf("seed:%d", i)

			id, err := uuid.NewV7()
			if err != nil {
				return created, err
			}
			at := now.Add(-time.Duration(len(sampleComments)-i) * time.Hour)
			comment := &model.Comment{
				ID:          id.String(),
				ResourceID:  resourceID,
				AuthorName:  sample.author,
				Content:     sample.content,
				AIScore:     sample.score,
				AIReason:    "seeded",
				Fingerprint: fingerprint,
				LikesCount:  sample.likes,
				CreatedAt:   at,
				UpdatedAt:   at,
			}
			comment.ApplyStatus(sample.status)
			if sample.status == model.CommentApproved {
				moderator := "seed"
				comment.ModeratedAt = &at
				comment.ModeratedBy = &moderator
			}

			if err := s.comments.Create(ctx, comment); err != nil {
				if errors.Is(err, moderation.ErrDuplicateSubmission) {
					continue
				}
				return created, fmt.Errorf("seed comment for resource %d: %w", resourceID, err)
			}
			created++
		}
		log.WithField("resource_id", resourceID).Info("Seeded comment thread")
	}

	return created, nil
}
