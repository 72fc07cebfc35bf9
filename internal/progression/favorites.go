package progression

import (
	"context"
	"time"

	"github.com/bkoval/fitpulse/internal/kvstore"
	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Favorites is the keyed collection of favorited videos.
type Favorites struct {
	store kvstore.Store
	now   func() time.Time
}

func NewFavorites(store kvstore.Store, now func() time.Time) *Favorites {
	return &Favorites{
		store: store,
		now:   now,
	}
}

func (f *Favorites) load(ctx context.Context) []FavoriteVideo {
	var favorites []FavoriteVideo
	if _, err := kvstore.GetJSON(ctx, f.store, keyFavoriteVideos, &favorites); err != nil {
		log.Errorf("load favorites, using empty list: %s", err)
		return nil
	}
	return favorites
}

func (f *Favorites) save(ctx context.Context, favorites []FavoriteVideo) {
	if err := kvstore.SetJSON(ctx, f.store, keyFavoriteVideos, favorites); err != nil {
		log.Errorf("save favorites: %s", err)
	}
}

func (f *Favorites) List(ctx context.Context) []FavoriteVideo {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.favorites.list")
	defer span.End()

	favorites := f.load(ctx)
	if favorites == nil {
		favorites = make([]FavoriteVideo, 0)
	}
	return favorites
}

// Add stores the video as a favorite; adding an already favorited video
// is a no-op.
func (f *Favorites) Add(ctx context.Context, video FavoriteVideo) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.favorites.add")
	defer span.End()
	span.SetAttributes(attribute.String("video.id", video.VideoID))

	favorites := f.load(ctx)
	for _, existing := range favorites {
		if existing.VideoID == video.VideoID {
			return
		}
	}

	video.AddedAt = f.now()
	f.save(ctx, append(favorites, video))
}

// Remove deletes the favorite by video id; returns whether it was present.
func (f *Favorites) Remove(ctx context.Context, videoID string) bool {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.favorites.remove")
	defer span.End()
	span.SetAttributes(attribute.String("video.id", videoID))

	favorites := f.load(ctx)
	for i, existing := range favorites {
		if existing.VideoID == videoID {
			f.save(ctx, append(favorites[:i], favorites[i+1:]...))
			return true
		}
	}
	return false
}

func (f *Favorites) IsFavorite(ctx context.Context, videoID string) bool {
	for _, existing := range f.load(ctx) {
		if existing.VideoID == videoID {
			return true
		}
	}
	return false
}

// PersonalRecords keeps the best value per exercise.
type PersonalRecords struct {
	store kvstore.Store
	now   func() time.Time
}

func NewPersonalRecords(store kvstore.Store, now func() time.Time) *PersonalRecords {
	return &PersonalRecords{
		store: store,
		now:   now,
	}
}

func (r *PersonalRecords) load(ctx context.Context) map[string]PersonalRecord {
	records := map[string]PersonalRecord{}
	if _, err := kvstore.GetJSON(ctx, r.store, keyPersonalRecords, &records); err != nil {
		log.Errorf("load personal records, using empty map: %s", err)
		return map[string]PersonalRecord{}
	}
	return records
}

func (r *PersonalRecords) All(ctx context.Context) map[string]PersonalRecord {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.records.all")
	defer span.End()

	return r.load(ctx)
}

func (r *PersonalRecords) Get(ctx context.Context, exerciseID string) (PersonalRecord, bool) {
	record, ok := r.load(ctx)[exerciseID]
	return record, ok
}

// Update keeps the better (higher) value for the exercise, stamping
// AchievedAt when the record improves. Returns whether it improved.
func (r *PersonalRecords) Update(ctx context.Context, record PersonalRecord) bool {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.records.update")
	defer span.End()
	span.SetAttributes(attribute.String("exercise.id", record.ExerciseID))

	records := r.load(ctx)
	if existing, ok := records[record.ExerciseID]; ok && existing.Value >= record.Value {
		return false
	}

	record.AchievedAt = r.now()
	records[record.ExerciseID] = record

	if err := kvstore.SetJSON(ctx, r.store, keyPersonalRecords, records); err != nil {
		log.Errorf("save personal records: %s", err)
	}
	return true
}
