//go:build integration

package mongostore_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cppla/inkpress/store"
	"github.com/cppla/inkpress/store/mongostore"
	"github.com/cppla/inkpress/store/storetest"
)

var uri string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		panic(err)
	}
	uri = fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (store.UserStore, store.BlogStore) {
		ctx := context.Background()
		name := "inkpress_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
		db, err := mongostore.Connect(ctx, uri, name)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close(context.Background()) })
		return db.Users(), db.Blogs()
	})
}
