package memstore

import (
	"testing"

	"github.com/cppla/inkpress/store"
	"github.com/cppla/inkpress/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (store.UserStore, store.BlogStore) {
		db := New()
		return db.Users(), db.Blogs()
	})
}
