package store

import (
	"context"

	"emperror.dev/errors"
	"github.com/apex/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/priyxstudio/botdeck/internal/models"
)

const (
	// ErrNoBot is returned by First when no bot has been created yet.
	ErrNoBot = errors.Sentinel("store: no bot has been created")
	// ErrBotExists is returned by Insert when a bot is already stored.
	ErrBotExists = errors.Sentinel("store: a bot already exists")
)

// Store persists the single bot aggregate and its groups.
type Store struct {
	db *gorm.DB
}

// New returns a store backed by db, which must already be migrated.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Insert creates the bot together with its groups.
func (s *Store) Insert(ctx context.Context, b *models.Bot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Bot{}).Count(&count).Error; err != nil {
			return errors.Wrap(err, "store: failed to count bots")
		}
		if count > 0 {
			return ErrBotExists
		}
		for i := range b.Groups {
			b.Groups[i].Position = i
		}
		if err := tx.Create(b).Error; err != nil {
			return errors.Wrap(err, "store: failed to create bot")
		}
		log.WithFields(log.Fields{"bot": b.Name, "id": b.ID}).Debug("store: created bot")
		return nil
	})
}

// First returns the stored bot with its groups in display order.
func (s *Store) First(ctx context.Context) (*models.Bot, error) {
	var b models.Bot
	err := s.db.WithContext(ctx).
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Order("id ASC").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoBot
		}
		return nil, errors.Wrap(err, "store: failed to query bot")
	}
	return &b, nil
}

// Save persists the scalar fields of the bot. Groups are written through
// ReplaceGroups and SaveGroup.
func (s *Store) Save(ctx context.Context, b *models.Bot) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error; err != nil {
		return errors.Wrap(err, "store: failed to save bot")
	}
	return nil
}

// SaveGroup persists a single group, used for attendance state changes.
func (s *Store) SaveGroup(ctx context.Context, g *models.Group) error {
	if g.ID == 0 {
		return errors.New("store: cannot save a group that was never inserted")
	}
	if err := s.db.WithContext(ctx).Save(g).Error; err != nil {
		return errors.Wrap(err, "store: failed to save group")
	}
	return nil
}

// SaveState persists the scalar fields of the bot and every one of its groups
// in one transaction.
func (s *Store) SaveState(ctx context.Context, b *models.Bot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(b).Error; err != nil {
			return errors.Wrap(err, "store: failed to save bot")
		}
		for i := range b.Groups {
			if b.Groups[i].ID == 0 {
				return errors.New("store: cannot save a group that was never inserted")
			}
			if err := tx.Save(&b.Groups[i]).Error; err != nil {
				return errors.Wrap(err, "store: failed to save group")
			}
		}
		return nil
	})
}

// ReplaceGroups deletes every group of the bot and inserts groups in their
// place, in order. On success b.Groups holds the inserted records.
func (s *Store) ReplaceGroups(ctx context.Context, b *models.Bot, groups []models.Group) error {
	replacement := make([]models.Group, len(groups))
	for i, g := range groups {
		replacement[i] = models.Group{
			BotID:            b.ID,
			Position:         i,
			Name:             g.Name,
			IsValid:          g.IsValid,
			AttendanceActive: g.AttendanceActive,
			AttendanceCode:   g.AttendanceCode,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bot_id = ?", b.ID).Delete(&models.Group{}).Error; err != nil {
			return errors.Wrap(err, "store: failed to delete groups")
		}
		if len(replacement) == 0 {
			return nil
		}
		if err := tx.Create(&replacement).Error; err != nil {
			return errors.Wrap(err, "store: failed to insert groups")
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.Groups = replacement
	return nil
}

// Delete removes the bot and all of its groups.
func (s *Store) Delete(ctx context.Context, b *models.Bot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bot_id = ?", b.ID).Delete(&models.Group{}).Error; err != nil {
			return errors.Wrap(err, "store: failed to delete groups")
		}
		if err := tx.Delete(&models.Bot{}, b.ID).Error; err != nil {
			return errors.Wrap(err, "store: failed to delete bot")
		}
		log.WithFields(log.Fields{"bot": b.Name, "id": b.ID}).Debug("store: deleted bot")
		return nil
	})
}
