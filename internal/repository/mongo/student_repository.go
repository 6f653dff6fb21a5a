package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"student-api/internal/domain"
	"student-api/internal/repository"
)

type StudentRepository struct {
	coll *mongo.Collection
}

// Init is a no-op; the collection is created on first insert.
func (r *StudentRepository) Init(context.Context) error {
	return nil
}

func (r *StudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, unavailable("find students", err)
	}

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable("read students", err)
	}

	students := make([]domain.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, studentFromDoc(doc))
	}
	return students, nil
}

func (r *StudentRepository) Insert(ctx context.Context, fields domain.Fields) (string, error) {
	res, err := r.coll.InsertOne(ctx, fields.Native())
	if err != nil {
		return "", unavailable("insert student", err)
	}
	return idString(res.InsertedID), nil
}

func (r *StudentRepository) UpdateByID(ctx context.Context, id string, fields domain.Fields) (int64, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, err
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: fields.Native()}},
	)
	if err != nil {
		return 0, unavailable("update student", err)
	}
	return res.ModifiedCount, nil
}

func (r *StudentRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return 0, unavailable("delete student", err)
	}
	return res.DeletedCount, nil
}

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", repository.ErrInvalidID, id)
	}
	return oid, nil
}

func idString(v any) string {
	if oid, ok := v.(bson.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(v)
}

func studentFromDoc(doc bson.M) domain.Student {
	s := domain.Student{ID: idString(doc["_id"]), Fields: make(domain.Fields, len(doc))}
	for k, v := range doc {
		if k == domain.IDField {
			continue
		}
		s.Fields[k] = fromBSON(v)
	}
	return s
}

// fromBSON maps driver values onto domain values. Types outside the domain
// set (written by other clients) are rendered as strings.
func fromBSON(v any) domain.Value {
	switch t := v.(type) {
	case nil:
		return domain.Null{}
	case string:
		return domain.String(t)
	case bool:
		return domain.Bool(t)
	case int32:
		return domain.Int(t)
	case int64:
		return domain.Int(t)
	case float64:
		return domain.Float(t)
	case bson.A:
		list := make(domain.List, len(t))
		for i := range t {
			list[i] = fromBSON(t[i])
		}
		return list
	case bson.ObjectID:
		return domain.String(t.Hex())
	case bson.DateTime:
		return domain.String(t.Time().UTC().Format(time.RFC3339Nano))
	case bson.D, bson.M:
		b, err := bson.MarshalExtJSON(t, false, false)
		if err != nil {
			return domain.String(fmt.Sprint(t))
		}
		return domain.String(b)
	default:
		return domain.String(fmt.Sprint(t))
	}
}
