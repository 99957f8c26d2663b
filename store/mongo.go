// path: store/mongo.go
package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mirqab/models"
)

// MongoStore keeps reports in the detection_reports collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore wraps an already-connected database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("detection_reports")}
}

func (s *MongoStore) Kind() string { return "mongo" }

func (s *MongoStore) Save(ctx context.Context, r *models.Report) error {
	_, err := s.col.InsertOne(ctx, r)
	return err
}

func (s *MongoStore) Get(ctx context.Context, reportID string) (*models.Report, error) {
	var r models.Report
	err := s.col.FindOne(ctx, bson.M{"report_id": reportID}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) List(ctx context.Context, f Filter) ([]models.Report, error) {
	filter := bson.M{}
	if !f.From.IsZero() {
		setRange(filter, "timestamp", "$gte", f.From)
	}
	if !f.To.IsZero() {
		setRange(filter, "timestamp", "$lte", f.To)
	}
	if f.DeviceID != "" {
		filter["source_device_id"] = f.DeviceID
	}
	if f.FreeText != "" {
		var ors []bson.M
		for _, word := range strings.Fields(f.FreeText) {
			re := primitive.Regex{Pattern: regexEscape(word), Options: "i"}
			ors = append(ors,
				bson.M{"environment": re},
				bson.M{"attire_and_camouflage": re},
				bson.M{"equipment": re},
			)
		}
		if len(ors) > 0 {
			filter["$or"] = ors
		}
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if f.Limit > 0 {
		findOpts.SetLimit(int64(f.Limit))
	}

	cur, err := s.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Report
	for cur.Next(ctx) {
		var r models.Report
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	// Contract: newest first no matter what the server returned.
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *MongoStore) UpdateStatus(ctx context.Context, reportID, status, assignee string) (*models.Report, error) {
	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if assignee != "" {
		set["assignee"] = assignee
	}

	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var r models.Report
	err := s.col.FindOneAndUpdate(ctx, bson.M{"report_id": reportID}, bson.M{"$set": set}, opts).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) Stats(ctx context.Context, from, to time.Time) (*models.DetectionStats, error) {
	match := bson.M{}
	if !from.IsZero() {
		setRange(match, "timestamp", "$gte", from)
	}
	if !to.IsZero() {
		setRange(match, "timestamp", "$lte", to)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"total":    bson.M{"$sum": 1},
			"soldiers": bson.M{"$sum": "$soldier_count"},
			"critical": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$soldier_count", 3}}, 1, 0,
			}}},
			"in_progress": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.StatusInProgress}}, 1, 0,
			}}},
			"closed": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{"$status", bson.A{
					models.StatusClosedFalsePos, models.StatusClosedRemediate,
				}}}, 1, 0,
			}}},
		}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stats := &models.DetectionStats{}
	if cur.Next(ctx) {
		var row struct {
			Total      int `bson:"total"`
			Soldiers   int `bson:"soldiers"`
			Critical   int `bson:"critical"`
			InProgress int `bson:"in_progress"`
			Closed     int `bson:"closed"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		stats.TotalDetections = row.Total
		stats.TotalSoldiers = row.Soldiers
		stats.CriticalAlerts = row.Critical
		stats.AlertsByStatus = models.StatusBreakdown{
			New:        row.Total - row.InProgress - row.Closed,
			InProgress: row.InProgress,
			Closed:     row.Closed,
		}
	}
	return stats, cur.Err()
}

func setRange(m bson.M, key, op string, t time.Time) {
	if m[key] == nil {
		m[key] = bson.M{}
	}
	m[key].(bson.M)[op] = t
}

// regexEscape keeps free-text words from being interpreted as patterns.
func regexEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
