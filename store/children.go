package store

import (
	"database/sql"

	"github.com/jinzhu/gorm"
)

type Child struct {
	ChildId    sql.NullString
	DaycareId  sql.NullString
	LocationId sql.NullString
	ClassId    sql.NullString
	FirstName  sql.NullString
	LastName   sql.NullString
}

type ResponsibleOf struct {
	ResponsibleId sql.NullString
	ChildId       sql.NullString
	Relationship  sql.NullString
}

func (ResponsibleOf) TableName() string {
	return "responsible_of"
}

type User struct {
	UserId    sql.NullString
	FirstName sql.NullString
	LastName  sql.NullString
}

// ListChildIdsOfClass resolves a class roster, used when a submission
// applies to all children in a class.
func (s *Store) ListChildIdsOfClass(tx *gorm.DB, classId string) ([]string, error) {
	db := s.dbOrTx(tx)

	children := []Child{}
	if err := db.Table("children").Select("children.child_id").
		Where("children.class_id = ?", classId).
		Scan(&children).Error; err != nil {
		return nil, err
	}

	childIds := []string{}
	for _, child := range children {
		childIds = append(childIds, child.ChildId.String)
	}
	return childIds, nil
}

// ListChildIdsOfResponsible resolves a guardian's verified guardianship
// set. Parent-facing queries are always scoped to this set.
func (s *Store) ListChildIdsOfResponsible(tx *gorm.DB, responsibleId string) ([]string, error) {
	db := s.dbOrTx(tx)

	links := []ResponsibleOf{}
	if err := db.Table("responsible_of").Select("responsible_of.child_id").
		Where("responsible_of.responsible_id = ?", responsibleId).
		Scan(&links).Error; err != nil {
		return nil, err
	}

	childIds := []string{}
	for _, link := range links {
		childIds = append(childIds, link.ChildId.String)
	}
	return childIds, nil
}

// ListResponsiblesOfChild is the reverse lookup, used by the event
// consumer to decide who should be notified about a sent report.
func (s *Store) ListResponsiblesOfChild(tx *gorm.DB, childId string) ([]string, error) {
	db := s.dbOrTx(tx)

	links := []ResponsibleOf{}
	if err := db.Table("responsible_of").Select("responsible_of.responsible_id").
		Where("responsible_of.child_id = ?", childId).
		Scan(&links).Error; err != nil {
		return nil, err
	}

	responsibleIds := []string{}
	for _, link := range links {
		responsibleIds = append(responsibleIds, link.ResponsibleId.String)
	}
	return responsibleIds, nil
}

// GetChildDisplayNames returns "First Last" per child id for feed
// enrichment. Unknown ids are simply absent from the result.
func (s *Store) GetChildDisplayNames(tx *gorm.DB, childIds []string) (map[string]string, error) {
	db := s.dbOrTx(tx)

	if len(childIds) == 0 {
		return map[string]string{}, nil
	}

	children := []Child{}
	if err := db.Table("children").Select("children.child_id, children.first_name, children.last_name").
		Where("children.child_id IN (?)", childIds).
		Scan(&children).Error; err != nil {
		return nil, err
	}

	names := make(map[string]string, len(children))
	for _, child := range children {
		names[child.ChildId.String] = child.FirstName.String + " " + child.LastName.String
	}
	return names, nil
}

// GetUserDisplayNames returns "First Last" per user id, used to label
// feed items with the teacher who recorded them.
func (s *Store) GetUserDisplayNames(tx *gorm.DB, userIds []string) (map[string]string, error) {
	db := s.dbOrTx(tx)

	if len(userIds) == 0 {
		return map[string]string{}, nil
	}

	users := []User{}
	if err := db.Table("users").Select("users.user_id, users.first_name, users.last_name").
		Where("users.user_id IN (?)", userIds).
		Scan(&users).Error; err != nil {
		return nil, err
	}

	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.UserId.String] = user.FirstName.String + " " + user.LastName.String
	}
	return names, nil
}
