package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/BodiAli/blog-api/internal/cache"
	"github.com/BodiAli/blog-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TopicRepository lists topics and removes the ones no post uses.
type TopicRepository interface {
	List(ctx context.Context) ([]models.Topic, error)
	SweepOrphans(ctx context.Context) (int64, error)
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) List(ctx context.Context) ([]models.Topic, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var topics []models.Topic
	err := cache.Aside(ctx, cache.TopicsKey(), &topics, cache.TopicsTTL, func() error {
		return readDB(r.db).WithContext(ctx).Order("name ASC").Find(&topics).Error
	})
	if err != nil {
		return nil, translateError(err, "Topic")
	}
	return topics, nil
}

func (r *topicRepository) SweepOrphans(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := sweepOrphanTopics(r.db.WithContext(ctx))
	if err != nil {
		return 0, translateError(err, "Topic")
	}
	if n > 0 {
		cache.Invalidate(ctx, cache.TopicsKey())
	}
	return n, nil
}

// sweepOrphanTopics deletes topics without a post link. Callers run it inside
// the transaction that changed the links.
func sweepOrphanTopics(tx *gorm.DB) (int64, error) {
	res := tx.Exec("DELETE FROM topics WHERE NOT EXISTS (SELECT 1 FROM post_topics WHERE post_topics.topic_id = topics.id)")
	return res.RowsAffected, res.Error
}

// linkTopics links postID to each named topic, reusing an existing topic that
// matches case-insensitively and creating the rest.
func linkTopics(tx *gorm.DB, postID uint, names []string) ([]models.Topic, error) {
	topics := make([]models.Topic, 0, len(names))
	for _, name := range names {
		topic, err := findOrCreateTopic(tx, name)
		if err != nil {
			return nil, err
		}
		err = tx.Exec("INSERT INTO post_topics (post_id, topic_id) VALUES (?, ?) ON CONFLICT DO NOTHING", postID, topic.ID).Error
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

func findOrCreateTopic(tx *gorm.DB, name string) (models.Topic, error) {
	var topic models.Topic
	err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).Take(&topic).Error
	if err == nil {
		return topic, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return topic, err
	}

	topic = models.Topic{Name: name}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&topic)
	if res.Error != nil {
		return topic, res.Error
	}
	if res.RowsAffected == 0 {
		// a concurrent writer created it first
		topic = models.Topic{}
		err = tx.Where("name = ?", name).Take(&topic).Error
	}
	return topic, err
}
