package reports

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/xyz-asif/citycare/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "reports"

// document is the stored form of a Report. Older documents carry flat
// latitude/longitude instead of the nested coordinates object.
type document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Report    `bson:",inline"`
	Latitude  *float64 `bson:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty"`
}

func (d *document) toReport() Report {
	r := d.Report
	r.ID = d.ID.Hex()
	if r.Coordinates == nil && d.Latitude != nil && d.Longitude != nil {
		r.Coordinates = &Coordinates{Lat: *d.Latitude, Lng: *d.Longitude}
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.MarkedLocations == nil {
		r.MarkedLocations = []MarkedLocation{}
	}
	return r
}

// MongoRepository is the durable report store.
type MongoRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection(CollectionName),
		now:        time.Now,
	}
}

// EnsureIndexes creates the list and stats indexes. It needs a reachable
// server, so it runs whenever the connection comes up rather than at
// construction.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

// MigrateLegacyCoordinates rewrites flat latitude/longitude documents into
// the nested coordinates shape.
func (r *MongoRepository) MigrateLegacyCoordinates(ctx context.Context) (int64, error) {
	filter := bson.M{
		"latitude":    bson.M{"$exists": true},
		"longitude":   bson.M{"$exists": true},
		"coordinates": bson.M{"$exists": false},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "coordinates", Value: bson.D{
			{Key: "lat", Value: "$latitude"},
			{Key: "lng", Value: "$longitude"},
		}}}}},
		{{Key: "$unset", Value: bson.A{"latitude", "longitude"}}},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *MongoRepository) Create(ctx context.Context, report *Report) error {
	now := r.now()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	doc := document{ID: primitive.NewObjectID(), Report: *report}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}

	report.ID = doc.ID.Hex()
	return nil
}

func (r *MongoRepository) List(ctx context.Context) ([]Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(docs))
	for i := range docs {
		reports = append(reports, docs[i].toReport())
	}
	return reports, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Report, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	var doc document
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	report := doc.toReport()
	return &report, nil
}

// UpdateStatus only writes when the status differs, so repeating an
// update leaves updatedAt untouched.
func (r *MongoRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Report, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc document
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "status": bson.M{"$ne": status}},
		bson.M{"$set": bson.M{"status": status, "updatedAt": r.now()}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return r.Get(ctx, id)
		}
		return nil, err
	}

	report := doc.toReport()
	return &report, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) (*Report, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	var doc document
	err = r.collection.FindOneAndDelete(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	report := doc.toReport()
	return &report, nil
}

func (r *MongoRepository) CountByStatus(ctx context.Context) (Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status Status `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, row := range rows {
		stats.Add(row.Status, row.Count)
	}
	return stats, nil
}
