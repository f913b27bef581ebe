package data

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MaxSkillResults caps public skill listings.
const MaxSkillResults = 50

// SkillsStore provides skill database operations.
type SkillsStore struct {
	coll *mongo.Collection
}

// NewSkillsStore returns a SkillsStore using the given collection.
func NewSkillsStore(coll *mongo.Collection) *SkillsStore {
	return &SkillsStore{coll: coll}
}

// CreateSkill inserts a prepared skill.
func (s *SkillsStore) CreateSkill(ctx context.Context, skill *Skill) (*Skill, error) {
	skill.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := s.coll.InsertOne(ctx, skill)
	if err != nil {
		return nil, storeErr(err)
	}
	skill.ID = result.InsertedID.(bson.ObjectID)
	return skill, nil
}

// GetSkill finds a skill by id.
func (s *SkillsStore) GetSkill(ctx context.Context, id bson.ObjectID) (*Skill, error) {
	var skill Skill
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&skill); err != nil {
		return nil, storeErr(err)
	}
	return &skill, nil
}

// SkillExists checks if a skill exists by id.
func (s *SkillsStore) SkillExists(ctx context.Context, id bson.ObjectID) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}

// SkillFilter narrows public listings. Zero values match everything.
type SkillFilter struct {
	Search   string
	Category string
	Type     string
}

// ListSkills returns active skills matching f, newest first, capped at
// MaxSkillResults. Search uses the text index over title, description and
// category.
func (s *SkillsStore) ListSkills(ctx context.Context, f SkillFilter) ([]*Skill, error) {
	filter := bson.M{"status": SkillActive}
	if c := strings.TrimSpace(f.Category); c != "" {
		filter["category"] = c
	}
	if t := strings.TrimSpace(f.Type); t != "" {
		filter["type"] = t
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		filter["$text"] = bson.M{"$search": q}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(MaxSkillResults)
	return s.find(ctx, filter, opts)
}

// ListAllSkills returns every skill regardless of status, newest first.
func (s *SkillsStore) ListAllSkills(ctx context.Context) ([]*Skill, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{}, opts)
}

// ListSkillsByOwner returns the skills posted by owner, newest first.
func (s *SkillsStore) ListSkillsByOwner(ctx context.Context, owner bson.ObjectID) ([]*Skill, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{"posted_by": owner}, opts)
}

func (s *SkillsStore) find(ctx context.Context, filter any, opts *options.FindOptionsBuilder) ([]*Skill, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	skills := []*Skill{}
	if err := cursor.All(ctx, &skills); err != nil {
		return nil, storeErr(err)
	}
	return skills, nil
}

// SkillRefs resolves title summaries for ids in one round trip.
func (s *SkillsStore) SkillRefs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*SkillRef, error) {
	refs := make(map[bson.ObjectID]*SkillRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	opts := options.Find().SetProjection(bson.D{{Key: "title", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var found []*SkillRef
	if err := cursor.All(ctx, &found); err != nil {
		return nil, storeErr(err)
	}
	for _, r := range found {
		refs[r.ID] = r
	}
	return refs, nil
}

// UpdateSkill applies upd and returns the updated skill.
func (s *SkillsStore) UpdateSkill(ctx context.Context, id bson.ObjectID, upd SkillUpdate) (*Skill, error) {
	set := bson.M{}
	for key, v := range map[string]*string{
		"title":        upd.Title,
		"description":  upd.Description,
		"category":     upd.Category,
		"type":         upd.Type,
		"level":        upd.Level,
		"availability": upd.Availability,
		"status":       upd.Status,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	if len(set) == 0 {
		return s.GetSkill(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var skill Skill
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&skill); err != nil {
		return nil, storeErr(err)
	}
	return &skill, nil
}

// DeleteSkill removes a skill.
func (s *SkillsStore) DeleteSkill(ctx context.Context, id bson.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSkillsByOwner removes every skill posted by owner.
func (s *SkillsStore) DeleteSkillsByOwner(ctx context.Context, owner bson.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"posted_by": owner})
	if err != nil {
		return 0, storeErr(err)
	}
	return res.DeletedCount, nil
}
