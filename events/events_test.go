package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs       []published
	publishErr error
	drained    bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.msgs = append(f.msgs, published{subject: subj, data: data})
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATS_PublishEncodesJSON(t *testing.T) {
	nc := &fakeConn{}
	p := newNATS(nc, zap.NewNop())

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.Publish(context.Background(), SubjectBlogLiked, BlogLiked{BlogID: "b1", UserID: "u1", Liked: true, Likes: 1, Timestamp: ts})

	require.Len(t, nc.msgs, 1)
	assert.Equal(t, "blog.liked", nc.msgs[0].subject)

	var got BlogLiked
	require.NoError(t, json.Unmarshal(nc.msgs[0].data, &got))
	assert.Equal(t, "b1", got.BlogID)
	assert.True(t, got.Liked)
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestNATS_PublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	nc := &fakeConn{publishErr: errors.New("connection closed")}
	p := newNATS(nc, zap.New(core))

	p.Publish(context.Background(), SubjectUserFollowed, UserFollowed{FollowerID: "a", TargetID: "b"})

	assert.Empty(t, nc.msgs)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "publish event", logs.All()[0].Message)
}

func TestNATS_UnencodablePayload(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	nc := &fakeConn{}
	p := newNATS(nc, zap.New(core))

	p.Publish(context.Background(), SubjectBlogCreated, make(chan int))

	assert.Empty(t, nc.msgs)
	assert.Equal(t, 1, logs.Len())
}

func TestNATS_CloseDrains(t *testing.T) {
	nc := &fakeConn{}
	newNATS(nc, nil).Close()
	assert.True(t, nc.drained)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	p.Publish(context.Background(), SubjectBlogReported, BlogReported{})
	p.Close()
}
