package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
)

// WorkUnit is one discrete piece of ingested work. Sources define one
// implementation per entity kind; the pipeline only relies on this interface.
type WorkUnit interface {
	ID() string
	Metadata() map[string]any
}

// UnitID is the stable identity embedded by concrete work units.
type UnitID struct {
	id string
}

func NewUnitID(id string) (UnitID, error) {
	if strings.TrimSpace(id) == "" {
		return UnitID{}, apperr.NewMalformedWorkUnit(id, errors.New("work unit id is empty"))
	}
	return UnitID{id: id}, nil
}

func (u UnitID) ID() string {
	return u.id
}

// MetadataWorkUnit carries one aspect of one entity.
type MetadataWorkUnit struct {
	UnitID
	EntityURN  string
	AspectName string
	Aspect     map[string]any
}

// NewMetadataWorkUnit builds a unit for entityURN; an empty id defaults to
// "<entityURN>-<aspectName>".
func NewMetadataWorkUnit(id, entityURN, aspectName string, aspect map[string]any) (*MetadataWorkUnit, error) {
	if entityURN == "" {
		return nil, apperr.NewMalformedWorkUnit(id, errors.New("entity urn is empty"))
	}
	if aspectName == "" {
		return nil, apperr.NewMalformedWorkUnit(id, errors.New("aspect name is empty"))
	}
	if id == "" {
		id = fmt.Sprintf("%s-%s", entityURN, aspectName)
	}

	uid, err := NewUnitID(id)
	if err != nil {
		return nil, err
	}

	return &MetadataWorkUnit{
		UnitID:     uid,
		EntityURN:  entityURN,
		AspectName: aspectName,
		Aspect:     cloneMetadata(aspect),
	}, nil
}

func (wu *MetadataWorkUnit) Metadata() map[string]any {
	return map[string]any{
		"entityUrn":  wu.EntityURN,
		"aspectName": wu.AspectName,
		"aspect":     cloneMetadata(wu.Aspect),
	}
}

// UsageStatsWorkUnit carries aggregated usage of a dataset for one time bucket.
type UsageStatsWorkUnit struct {
	UnitID
	DatasetURN      string
	BucketStart     time.Time
	TotalSQLQueries int
	UniqueUserCount int
	TopUsers        []string
}

func NewUsageStatsWorkUnit(datasetURN string, bucketStart time.Time, queries, users int, topUsers []string) (*UsageStatsWorkUnit, error) {
	if datasetURN == "" {
		return nil, apperr.NewMalformedWorkUnit("", errors.New("dataset urn is empty"))
	}
	if queries < 0 || users < 0 {
		return nil, apperr.NewMalformedWorkUnit(datasetURN, errors.New("usage counters must not be negative"))
	}

	uid, err := NewUnitID(fmt.Sprintf("%s-%d", datasetURN, bucketStart.UnixMilli()))
	if err != nil {
		return nil, err
	}

	return &UsageStatsWorkUnit{
		UnitID:          uid,
		DatasetURN:      datasetURN,
		BucketStart:     bucketStart.UTC(),
		TotalSQLQueries: queries,
		UniqueUserCount: users,
		TopUsers:        append([]string(nil), topUsers...),
	}, nil
}

func (wu *UsageStatsWorkUnit) Metadata() map[string]any {
	return map[string]any{
		"entityUrn":       wu.DatasetURN,
		"aspectName":      "datasetUsageStatistics",
		"timestampMillis": wu.BucketStart.UnixMilli(),
		"totalSqlQueries": wu.TotalSQLQueries,
		"uniqueUserCount": wu.UniqueUserCount,
		"topSqlUsers":     append([]string(nil), wu.TopUsers...),
	}
}
