package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) Close() {
	f.closed = true
}

func TestKafkaSinkPublishesKeyedRecord(t *testing.T) {
	fp := &fakeProducer{}
	sink := &KafkaSink{client: fp, topic: "empresa-history"}

	err := sink.Publish(context.Background(), Event{EmpKey: 12345678, Action: ActionCompanyCreated})
	require.NoError(t, err)

	require.Len(t, fp.records, 1)
	rec := fp.records[0]
	assert.Equal(t, "empresa-history", rec.Topic)
	assert.Equal(t, "12345678", string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "company_created", string(rec.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, int64(12345678), decoded.EmpKey)

	sink.Close()
	assert.True(t, fp.closed)
}

func TestKafkaSinkReturnsProduceError(t *testing.T) {
	sink := &KafkaSink{client: &fakeProducer{err: errors.New("not leader")}, topic: "t"}

	err := sink.Publish(context.Background(), Event{EmpKey: 1, Action: ActionCompanyCreated})
	assert.ErrorContains(t, err, "not leader")
}
