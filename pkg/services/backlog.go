package services

import (
	"sort"
	"time"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// CompletionClassifier splits case sequences into complete and pending
// populations and derives the started-vs-completed backlog series.
type CompletionClassifier interface {
	// Split partitions sequences by whether they visit any terminal
	// state. An empty terminal set classifies every case as complete.
	Split(sequences []models.CaseSequence, terminal map[int]struct{}) (complete, pending []models.CaseSequence)

	// BacklogRows buckets case starts by freq and counts, per bucket,
	// how many of the started cases completed. The not-completed column
	// is always the difference of the other two.
	BacklogRows(sequences []models.CaseSequence, terminal map[int]struct{}, freq models.BucketFreq) []models.BacklogRow
}

type completionClassifier struct{}

// NewCompletionClassifier creates a new CompletionClassifier.
func NewCompletionClassifier() CompletionClassifier {
	return &completionClassifier{}
}

var _ CompletionClassifier = (*completionClassifier)(nil)

func (c *completionClassifier) Split(sequences []models.CaseSequence, terminal map[int]struct{}) (complete, pending []models.CaseSequence) {
	complete = make([]models.CaseSequence, 0, len(sequences))
	pending = make([]models.CaseSequence, 0)
	for _, seq := range sequences {
		if seq.ContainsAny(terminal) {
			complete = append(complete, seq)
		} else {
			pending = append(pending, seq)
		}
	}
	return complete, pending
}

func (c *completionClassifier) BacklogRows(sequences []models.CaseSequence, terminal map[int]struct{}, freq models.BucketFreq) []models.BacklogRow {
	type counts struct {
		started   int
		completed int
	}
	buckets := make(map[int64]*counts)
	bucketTimes := make(map[int64]time.Time)

	for _, seq := range sequences {
		bucket := models.BucketStart(seq.Start, freq)
		key := bucket.Unix()
		b, ok := buckets[key]
		if !ok {
			b = &counts{}
			buckets[key] = b
			bucketTimes[key] = bucket
		}
		b.started++
		if seq.ContainsAny(terminal) {
			b.completed++
		}
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]models.BacklogRow, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		rows = append(rows, models.BacklogRow{
			Bucket:       bucketTimes[k],
			Started:      b.started,
			Completed:    b.completed,
			NotCompleted: b.started - b.completed,
		})
	}
	return rows
}
