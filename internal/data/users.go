package data

import (
	"context"
	"time"

	"github.com/PaulBabatuyi/skillshub/internal/normalize"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// profileProjection selects the public profile fields of a user.
var profileProjection = bson.D{
	{Key: "name", Value: 1},
	{Key: "email", Value: 1},
	{Key: "college", Value: 1},
	{Key: "course", Value: 1},
	{Key: "year", Value: 1},
	{Key: "bio", Value: 1},
}

// UsersStore performs user DB operations.
type UsersStore struct {
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// CreateUser inserts a new user document. The password must already be hashed.
func (u *UsersStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	// Mongo dates are millisecond precision
	now := time.Now().UTC().Truncate(time.Millisecond)
	user.Email = normalize.Email(user.Email) // lookups are by canonical email
	if user.Role == "" {
		user.Role = RoleStudent
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := u.coll.InsertOne(ctx, user)
	if err != nil {
		// unique index on email
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, storeErr(err)
	}

	// InsertedID is interface{}; assert to ObjectID
	user.ID = result.InsertedID.(bson.ObjectID)
	return user, nil
}

// GetUserByEmail finds a user by email, case-insensitively.
func (u *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	// FindOne + Decode; mongo.ErrNoDocuments becomes ErrNotFound in storeErr
	err := u.coll.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&user)
	if err != nil {
		return nil, storeErr(err)
	}
	return &user, nil
}

// GetUserByID finds a user by ObjectID.
func (u *UsersStore) GetUserByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, storeErr(err)
	}
	return &user, nil
}

// UserExists checks if a user exists by id.
func (u *UsersStore) UserExists(ctx context.Context, id bson.ObjectID) (bool, error) {
	// stop counting at the first match
	count, err := u.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}

// GetProfiles resolves the public profiles of ids in one round trip. Ids
// without a matching user are absent from the result.
func (u *UsersStore) GetProfiles(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*UserRef, error) {
	profiles := make(map[bson.ObjectID]*UserRef, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	// single $in query, public fields only
	cursor, err := u.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(profileProjection))
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var refs []*UserRef
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, storeErr(err)
	}
	for _, r := range refs {
		profiles[r.ID] = r
	}
	return profiles, nil
}

// ProfileUpdate carries editable profile fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	Name    *string `json:"name"`
	College *string `json:"college"`
	Course  *string `json:"course"`
	Year    *string `json:"year"`
	Bio     *string `json:"bio"`
}

// UpdateProfile applies upd and returns the updated user.
func (u *UsersStore) UpdateProfile(ctx context.Context, id bson.ObjectID, upd ProfileUpdate) (*User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.College != nil {
		set["college"] = *upd.College
	}
	if upd.Course != nil {
		set["course"] = *upd.Course
	}
	if upd.Year != nil {
		set["year"] = *upd.Year
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	if err := u.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		return nil, storeErr(err)
	}
	return &user, nil
}

// SetAvatar records the object key of the user's avatar.
func (u *UsersStore) SetAvatar(ctx context.Context, id bson.ObjectID, key string) error {
	res, err := u.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"avatar_key": key,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStudents returns every student account, newest first.
func (u *UsersStore) ListStudents(ctx context.Context) ([]*User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := u.coll.Find(ctx, bson.M{"role": RoleStudent}, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	users := []*User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, storeErr(err)
	}
	return users, nil
}

// DeleteUser removes a user document.
func (u *UsersStore) DeleteUser(ctx context.Context, id bson.ObjectID) error {
	res, err := u.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound // nothing matched the id
	}
	return nil
}

// VerifyEmail marks the user owning an unexpired verification digest as
// verified and clears the token. Unknown or expired digests yield ErrNotFound.
func (u *UsersStore) VerifyEmail(ctx context.Context, digest string, now time.Time) (*User, error) {
	filter := bson.M{
		"verification_token":         digest,
		"verification_token_expires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"is_verified": true, "updated_at": now},
		"$unset": bson.M{"verification_token": "", "verification_token_expires": ""},
	}

	// return the document after the update so callers see is_verified=true
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	if err := u.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		return nil, storeErr(err)
	}
	return &user, nil
}

// PromoteSuperAdmin makes the account with email the only admin: it is
// promoted and marked verified, and every other admin is demoted to student.
// Returns the number of demoted accounts.
func (u *UsersStore) PromoteSuperAdmin(ctx context.Context, email string) (*User, int64, error) {
	email = normalize.Email(email)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	err := u.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{
		"role":        RoleAdmin,
		"is_verified": true,
		"updated_at":  time.Now().UTC(),
	}}, opts).Decode(&user)
	if err != nil {
		return nil, 0, storeErr(err)
	}

	// demote everyone else holding the admin role
	res, err := u.coll.UpdateMany(ctx,
		bson.M{"role": RoleAdmin, "_id": bson.M{"$ne": user.ID}},
		bson.M{"$set": bson.M{"role": RoleStudent, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return &user, 0, storeErr(err)
	}
	return &user, res.ModifiedCount, nil
}
