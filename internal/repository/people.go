package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wisefido-presence/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PeopleRepository 人员文档仓库（people/{id}）
type PeopleRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPeopleRepository 创建人员仓库
func NewPeopleRepository(client *redis.Client, logger *zap.Logger) *PeopleRepository {
	return &PeopleRepository{
		client: client,
		logger: logger,
	}
}

// Create 创建人员（住户导入或访客登记）
func (r *PeopleRepository) Create(ctx context.Context, personType, firstName, lastName, dob, userID string) (string, error) {
	if personType != models.PersonTypeResident && personType != models.PersonTypeVisitor {
		return "", fmt.Errorf("%w: unknown person type %q", ErrInvalidInput, personType)
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidInput)
	}

	person := &models.Person{
		ID:        uuid.New().String(),
		Type:      personType,
		FirstName: firstName,
		LastName:  lastName,
		DOB:       dob,
		UserID:    userID,
		RFIDTags:  map[string]bool{},
		Locations: models.PersonLocations{History: []models.HistoryEntry{}},
	}

	if err := setDoc(ctx, r.client, personKey(person.ID), person); err != nil {
		return "", err
	}

	r.logger.Info("Created person",
		zap.String("person_id", person.ID),
		zap.String("type", personType),
	)

	return person.ID, nil
}

// Get 获取人员
func (r *PeopleRepository) Get(ctx context.Context, id string) (*models.Person, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty person id", ErrInvalidInput)
	}
	var person models.Person
	if err := getDoc(ctx, r.client, personKey(id), &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// Put 整体写回人员文档
func (r *PeopleRepository) Put(ctx context.Context, person *models.Person) error {
	if person == nil || person.ID == "" {
		return fmt.Errorf("%w: person without id", ErrInvalidInput)
	}
	return setDoc(ctx, r.client, personKey(person.ID), person)
}

// List 列出所有人员，personType 非空时按类型过滤
func (r *PeopleRepository) List(ctx context.Context, personType string) ([]*models.Person, error) {
	keys, err := scanKeys(ctx, r.client, "people/*")
	if err != nil {
		return nil, err
	}

	people := make([]*models.Person, 0, len(keys))
	for _, key := range keys {
		var person models.Person
		if err := getDoc(ctx, r.client, key, &person); err != nil {
			// 并发删除或坏文档：跳过而不是让整个列表失败
			r.logger.Warn("Skipping unreadable person document",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		if personType != "" && person.Type != personType {
			continue
		}
		people = append(people, &person)
	}

	return people, nil
}

// SetCurrentLocation 更新人员当前位置
// 仅在位置发生实际变化时追加历史条目（连续重复读取只刷新活性）
func (r *PeopleRepository) SetCurrentLocation(ctx context.Context, personID, locationID string, ts int64) (changed bool, err error) {
	person, err := r.Get(ctx, personID)
	if err != nil {
		return false, err
	}

	changed = person.Locations.Current != locationID
	person.LastSeen = ts
	if changed {
		person.Locations.Current = locationID
		person.Locations.History = append(person.Locations.History, models.HistoryEntry{
			Location:  locationID,
			Timestamp: ts,
		})
	}

	if err := r.Put(ctx, person); err != nil {
		return false, err
	}
	return changed, nil
}

// ClearCurrentLocation 清除人员当前位置（离场判定）
// 返回被清除的位置ID；人员本就不在场时返回空串且不产生写入
func (r *PeopleRepository) ClearCurrentLocation(ctx context.Context, personID string, now time.Time) (string, error) {
	person, err := r.Get(ctx, personID)
	if err != nil {
		return "", err
	}
	if person.Locations.Current == "" {
		return "", nil
	}

	previous := person.Locations.Current
	person.Locations.Current = ""
	person.LastSeen = now.Unix()

	if err := r.Put(ctx, person); err != nil {
		return "", err
	}
	return previous, nil
}
