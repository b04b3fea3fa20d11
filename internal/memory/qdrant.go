package memory

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// qdrantPoints implements pointsClient against a real Qdrant deployment.
type qdrantPoints struct {
	client *qdrant.Client
}

// NewQdrantClient dials Qdrant and returns a Store client. host and port
// address the gRPC endpoint; apiKey may be empty for an unauthenticated
// local instance.
func NewQdrantClient(host string, port int, apiKey string, useTLS bool) (*qdrantPoints, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("dial qdrant: %w", err)
	}
	return &qdrantPoints{client: client}, nil
}

func (q *qdrantPoints) EnsureCollection(ctx context.Context, name string, size uint64) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if exists {
		return nil
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (q *qdrantPoints) Upsert(ctx context.Context, collection string, id string, vector []float32, payload map[string]any) error {
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", collection, err)
	}
	return nil
}

func (q *qdrantPoints) Search(ctx context.Context, collection string, vector []float32, limit int, filter map[string]any) ([]SearchHit, error) {
	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(filter) > 0 {
		req.Filter = matchFilter(filter)
	}
	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	hits := make([]SearchHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, SearchHit{ID: pointIDString(p.Id), Score: p.Score, Payload: valueMapToAny(p.Payload)})
	}
	return hits, nil
}

func (q *qdrantPoints) Scroll(ctx context.Context, collection string, filter map[string]any, limit int) ([]SearchHit, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(filter) > 0 {
		req.Filter = matchFilter(filter)
	}
	points, err := q.client.Scroll(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scroll %s: %w", collection, err)
	}
	hits := make([]SearchHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, SearchHit{ID: pointIDString(p.Id), Payload: valueMapToAny(p.Payload)})
	}
	return hits, nil
}

func (q *qdrantPoints) GetByID(ctx context.Context, collection, id string) (SearchHit, bool, error) {
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return SearchHit{}, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if len(points) == 0 {
		return SearchHit{}, false, nil
	}
	p := points[0]
	return SearchHit{ID: pointIDString(p.Id), Payload: valueMapToAny(p.Payload)}, true, nil
}

func (q *qdrantPoints) DeleteByID(ctx context.Context, collection, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func matchFilter(filter map[string]any) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for field, value := range filter {
		conditions = append(conditions, qdrant.NewMatch(field, fmt.Sprintf("%v", value)))
	}
	return &qdrant.Filter{Must: conditions}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}

// valueMapToAny unwraps Qdrant's protobuf Value oneof (mirroring
// google.protobuf.Value's Kind variants) into plain Go values for the
// payload maps returned to callers.
func valueMapToAny(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch {
		case v == nil:
			out[k] = nil
		case v.GetStringValue() != "":
			out[k] = v.GetStringValue()
		case v.GetIntegerValue() != 0:
			out[k] = v.GetIntegerValue()
		case v.GetDoubleValue() != 0:
			out[k] = v.GetDoubleValue()
		case v.GetBoolValue():
			out[k] = v.GetBoolValue()
		default:
			out[k] = nil
		}
	}
	return out
}
