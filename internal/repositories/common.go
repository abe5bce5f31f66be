package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// paginate возвращает scope с LIMIT/OFFSET для 1-based страницы.
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 {
			page = 1
		}
		if pageSize <= 0 {
			pageSize = 20
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// isDuplicate срабатывает при нарушении уникального индекса
// (gorm открыт с TranslateError: true).
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// isUUID пропускает только канонический вид xxxxxxxx-xxxx-..., в котором
// база выдает идентификаторы. Остальное Postgres отверг бы с 22P02.
func isUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
