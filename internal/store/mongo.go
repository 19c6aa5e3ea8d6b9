package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rollbook/internal/model"
)

// Mongo persists records in three collections, one document per record.
//
// AdmitStudent counts and inserts in two round trips; callers serialize
// admissions per class with the roster locker.
type Mongo struct {
	client      *mongo.Client
	departments *mongo.Collection
	classes     *mongo.Collection
	students    *mongo.Collection
}

// OpenMongo connects to uri and uses the named database.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:      client,
		departments: db.Collection("departments"),
		classes:     db.Collection("classes"),
		students:    db.Collection("students"),
	}
	if _, err := m.classes.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "department", Value: 1}}}); err != nil {
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	if _, err := m.students.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "className", Value: 1}}}); err != nil {
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	return m, nil
}

var byID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

func (m *Mongo) CreateDepartment(ctx context.Context, d *model.Department) error {
	d.ID = NewID()
	_, err := m.departments.InsertOne(ctx, d)
	return err
}

func (m *Mongo) GetDepartment(ctx context.Context, id string) (model.Department, error) {
	var d model.Department
	err := m.departments.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	return d, noDocuments(err)
}

func (m *Mongo) ListDepartments(ctx context.Context) ([]model.Department, error) {
	out := []model.Department{}
	return out, findAll(ctx, m.departments, bson.M{}, &out)
}

func (m *Mongo) RenameDepartment(ctx context.Context, id, name string) (model.Department, error) {
	var d model.Department
	err := m.departments.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	return d, noDocuments(err)
}

func (m *Mongo) DeleteDepartment(ctx context.Context, id string) error {
	_, err := m.departments.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (m *Mongo) CreateClass(ctx context.Context, c *model.Class) error {
	c.ID = NewID()
	_, err := m.classes.InsertOne(ctx, c)
	return err
}

func (m *Mongo) GetClass(ctx context.Context, id string) (model.Class, error) {
	var c model.Class
	err := m.classes.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, noDocuments(err)
}

func (m *Mongo) ListClasses(ctx context.Context, departmentID string) ([]model.Class, error) {
	filter := bson.M{}
	if departmentID != "" {
		filter["department"] = departmentID
	}
	out := []model.Class{}
	return out, findAll(ctx, m.classes, filter, &out)
}

func (m *Mongo) RenameClass(ctx context.Context, id, name string) (model.Class, error) {
	var c model.Class
	err := m.classes.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	return c, noDocuments(err)
}

func (m *Mongo) DeleteClass(ctx context.Context, id string) error {
	_, err := m.classes.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (m *Mongo) AdmitStudent(ctx context.Context, s *model.Student, limit int) error {
	n, err := m.CountStudents(ctx, s.ClassID)
	if err != nil {
		return err
	}
	if n >= limit {
		return ErrClassFull
	}
	s.ID = NewID()
	_, err = m.students.InsertOne(ctx, s)
	return err
}

func (m *Mongo) GetStudent(ctx context.Context, id string) (model.Student, error) {
	var s model.Student
	err := m.students.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	return s, noDocuments(err)
}

func (m *Mongo) ListStudents(ctx context.Context, classID string) ([]model.Student, error) {
	filter := bson.M{}
	if classID != "" {
		filter["className"] = classID
	}
	out := []model.Student{}
	return out, findAll(ctx, m.students, filter, &out)
}

func (m *Mongo) CountStudents(ctx context.Context, classID string) (int, error) {
	n, err := m.students.CountDocuments(ctx, bson.M{"className": classID})
	return int(n), err
}

func (m *Mongo) UpdateStudent(ctx context.Context, id string, u model.StudentUpdate) (model.Student, error) {
	if u.Empty() {
		return m.GetStudent(ctx, id)
	}
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	if u.LastUpdated != nil {
		set["lastUpdated"] = *u.LastUpdated
	}
	var s model.Student
	err := m.students.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&s)
	return s, noDocuments(err)
}

func (m *Mongo) DeleteStudent(ctx context.Context, id string) error {
	_, err := m.students.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (m *Mongo) Reset(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{m.students, m.classes, m.departments} {
		if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error { return m.client.Ping(ctx, nil) }

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, out any) error {
	cur, err := coll.Find(ctx, filter, byID)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func noDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
