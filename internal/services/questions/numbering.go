package questions

import (
	"gorm.io/gorm"

	"prepvault/internal/models"
)

// nextNumber computes the next dense sequence number for a company: one past
// the current maximum, 1 for the first question. excludeID is set when a
// question is being moved between companies so it does not count itself.
//
// The read is not serialized against concurrent inserts; the composite unique
// index on (company_id, question_number) is what turns a lost race into
// gorm.ErrDuplicatedKey, which callers retry. If the lookup itself fails the
// whole operation fails; a question is never inserted without a number.
func nextNumber(tx *gorm.DB, companyID, excludeID string) (int, error) {
	q := tx.Model(&models.Question{}).Where("company_id = ?", companyID)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var max int
	if err := q.Select("COALESCE(MAX(question_number), 0)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}
