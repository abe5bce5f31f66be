package repositories

import (
	"errors"
	"time"

	"meetspace_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrActiveSubscriptionExists = errors.New("customer already has an active subscription")
)

// usageColumns - колонки, которые пишет обновление использования.
var usageColumns = []string{
	"usage_month", "usage_rooms_created", "usage_total_minutes", "usage_participants_count", "usage_history",
}

type SubscriptionRepository interface {
	// Create создает подписку. Если она активна, прочие активные подписки
	// клиента переводятся в inactive в той же транзакции.
	Create(db *gorm.DB, sub *models.Subscription) error
	FindByID(db *gorm.DB, id string) (*models.Subscription, error)
	// FindActiveByCustomer - активная подписка, действующая в момент now;
	// при нескольких берется самая поздняя по start_date.
	FindActiveByCustomer(db *gorm.DB, customerID string, now time.Time) (*models.Subscription, error)
	FindLatestByCustomer(db *gorm.DB, customerID string) (*models.Subscription, error)
	List(db *gorm.DB, customerID, status string, page, pageSize int) ([]models.Subscription, int64, error)
	UpdateStatus(db *gorm.DB, id string, status models.SubscriptionStatus, now time.Time) (*models.Subscription, error)
	SetAutoRenew(db *gorm.DB, id string, autoRenew bool) error
	// UpdateUsage блокирует строку (SELECT ... FOR UPDATE), применяет apply
	// и сохраняет колонки использования.
	UpdateUsage(db *gorm.DB, id string, apply func(sub *models.Subscription) error) (*models.Subscription, error)
	// SavePeriod сохраняет период, статус и использование (продление).
	SavePeriod(db *gorm.DB, sub *models.Subscription) error
	FindExpiredActive(db *gorm.DB, now time.Time, limit int) ([]models.Subscription, error)
}

type subscriptionRepository struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &subscriptionRepository{}
}

func deactivateOthers(tx *gorm.DB, customerID, exceptID string) error {
	query := tx.Model(&models.Subscription{}).
		Where("customer_id = ? AND status = ?", customerID, models.SubscriptionStatusActive)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	return query.Update("status", models.SubscriptionStatusInactive).Error
}

func (r *subscriptionRepository) Create(db *gorm.DB, sub *models.Subscription) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if sub.Status == models.SubscriptionStatusActive {
			if err := deactivateOthers(tx, sub.CustomerID, ""); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(sub).Error
	})
	if isDuplicate(err) {
		return ErrActiveSubscriptionExists
	}
	return err
}

func (r *subscriptionRepository) FindByID(db *gorm.DB, id string) (*models.Subscription, error) {
	if !isUUID(id) {
		return nil, ErrSubscriptionNotFound
	}
	var sub models.Subscription
	if err := db.Preload("Plan").First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindActiveByCustomer(db *gorm.DB, customerID string, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Preload("Plan").
		Where("customer_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			customerID, models.SubscriptionStatusActive, now, now).
		Order("start_date DESC, created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindLatestByCustomer(db *gorm.DB, customerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Preload("Plan").
		Where("customer_id = ?", customerID).
		Order("start_date DESC, created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) List(db *gorm.DB, customerID, status string, page, pageSize int) ([]models.Subscription, int64, error) {
	query := db.Model(&models.Subscription{})
	if customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []models.Subscription
	err := query.Preload("Plan").Scopes(paginate(page, pageSize)).Order("created_at DESC").Find(&subs).Error
	return subs, total, err
}

func (r *subscriptionRepository) UpdateStatus(db *gorm.DB, id string, status models.SubscriptionStatus, now time.Time) (*models.Subscription, error) {
	if !isUUID(id) {
		return nil, ErrSubscriptionNotFound
	}
	var sub models.Subscription
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sub, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		fields := map[string]interface{}{"status": status}
		if status == models.SubscriptionStatusActive {
			if err := deactivateOthers(tx, sub.CustomerID, sub.ID); err != nil {
				return err
			}
		}
		if status == models.SubscriptionStatusCancelled {
			fields["cancelled_at"] = now
			fields["auto_renew"] = false
		}
		return tx.Model(&sub).Updates(fields).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrActiveSubscriptionExists
		}
		return nil, err
	}
	return r.FindByID(db, id)
}

func (r *subscriptionRepository) SetAutoRenew(db *gorm.DB, id string, autoRenew bool) error {
	result := db.Model(&models.Subscription{}).Where("id = ?", id).Update("auto_renew", autoRenew)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *subscriptionRepository) UpdateUsage(db *gorm.DB, id string, apply func(sub *models.Subscription) error) (*models.Subscription, error) {
	if !isUUID(id) {
		return nil, ErrSubscriptionNotFound
	}
	var sub models.Subscription
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sub, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}
		if err := apply(&sub); err != nil {
			return err
		}
		return tx.Model(&sub).Select(usageColumns).Updates(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) SavePeriod(db *gorm.DB, sub *models.Subscription) error {
	columns := append([]string{"start_date", "end_date", "status"}, usageColumns...)
	result := db.Model(sub).Select(columns).Updates(sub)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *subscriptionRepository) FindExpiredActive(db *gorm.DB, now time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Preload("Plan").Preload("Customer").
		Where("status = ? AND end_date < ?", models.SubscriptionStatusActive, now).
		Order("end_date ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}
