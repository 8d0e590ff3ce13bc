package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dandantas/pimpush/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobRepository persists push jobs in MongoDB. Credentials are never stored.
type JobRepository struct {
	db         *MongoDB
	collection *mongo.Collection
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *MongoDB) *JobRepository {
	return &JobRepository{
		db:         db,
		collection: db.GetCollection(CollectionPushJobs),
	}
}

// Insert stores a new job
func (r *JobRepository) Insert(ctx context.Context, job *model.Job) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if job.Results == nil {
		job.Results = []model.RowResult{}
	}

	_, err := r.collection.InsertOne(ctxTimeout, job)
	if err != nil {
		return fmt.Errorf("failed to create push job: %w", err)
	}

	return nil
}

// Get retrieves a job by id
func (r *JobRepository) Get(ctx context.Context, jobID string) (*model.Job, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var job model.Job
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": jobID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get push job: %w", err)
	}

	if job.Results == nil {
		job.Results = []model.RowResult{}
	}
	return &job, nil
}

// List retrieves jobs with filtering and pagination, newest first
func (r *JobRepository) List(ctx context.Context, filter model.JobFilter, page, limit int) ([]*model.Job, int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := listFilter(filter)

	total, err := r.collection.CountDocuments(ctxTimeout, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count push jobs: %w", err)
	}

	skip := (page - 1) * limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"rows": 0})

	cursor, err := r.collection.Find(ctxTimeout, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list push jobs: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	jobs := []*model.Job{}
	if err := cursor.All(ctxTimeout, &jobs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode push jobs: %w", err)
	}

	return jobs, total, nil
}

// ListUnfinished returns pending and running jobs, oldest first
func (r *JobRepository) ListUnfinished(ctx context.Context) ([]*model.Job, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{"status": bson.M{"$in": []model.JobState{model.JobPending, model.JobRunning}}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetProjection(bson.M{"rows": 0, "results": 0})

	cursor, err := r.collection.Find(ctxTimeout, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished push jobs: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	jobs := []*model.Job{}
	if err := cursor.All(ctxTimeout, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode push jobs: %w", err)
	}

	return jobs, nil
}

// MarkRunning moves a job to running
func (r *JobRepository) MarkRunning(ctx context.Context, jobID string, startedAt time.Time) error {
	return r.update(ctx, jobID, bson.M{
		"$set": bson.M{
			"status":     model.JobRunning,
			"started_at": startedAt.UTC(),
		},
	})
}

// AppendResult pushes a row result and advances processed in one update
func (r *JobRepository) AppendResult(ctx context.Context, jobID string, result model.RowResult) error {
	return r.update(ctx, jobID, bson.M{
		"$push": bson.M{"results": result},
		"$inc":  bson.M{"processed": 1},
	})
}

// Finish moves a job to a terminal state
func (r *JobRepository) Finish(ctx context.Context, jobID string, status model.JobState, errMsg string, finishedAt time.Time) error {
	set := bson.M{
		"status":      status,
		"finished_at": finishedAt.UTC(),
	}
	if errMsg != "" {
		set["error"] = errMsg
	}
	return r.update(ctx, jobID, bson.M{"$set": set})
}

// Delete removes a job
func (r *JobRepository) Delete(ctx context.Context, jobID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctxTimeout, bson.M{"_id": jobID})
	if err != nil {
		return fmt.Errorf("failed to delete push job: %w", err)
	}
	if result.DeletedCount == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

// PurgeFinishedBefore deletes terminal jobs that finished before cutoff
func (r *JobRepository) PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := r.collection.DeleteMany(ctxTimeout, purgeFilter(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge push jobs: %w", err)
	}
	return result.DeletedCount, nil
}

// Ping checks the database connection
func (r *JobRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Name identifies the backend in health output
func (r *JobRepository) Name() string {
	return "mongo"
}

func (r *JobRepository) update(ctx context.Context, jobID string, update bson.M) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctxTimeout, bson.M{"_id": jobID}, update)
	if err != nil {
		return fmt.Errorf("failed to update push job: %w", err)
	}
	if result.MatchedCount == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

func listFilter(filter model.JobFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.User != "" {
		query["user"] = filter.User
	}
	return query
}

func purgeFilter(cutoff time.Time) bson.M {
	return bson.M{
		"status":      bson.M{"$in": []model.JobState{model.JobCompleted, model.JobError}},
		"finished_at": bson.M{"$lt": cutoff.UTC()},
	}
}
