package tokenstore_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/internal/tokenstore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// behavesLikeAStore runs the contract every driver must honour.
func behavesLikeAStore(newStore func() tokenstore.Store) {
	var (
		store tokenstore.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newStore()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("reports no token when empty", func() {
		token, ok, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(token).To(BeEmpty())
	})

	It("returns the last saved token", func() {
		Expect(store.Save(ctx, "first")).To(Succeed())
		Expect(store.Save(ctx, "second")).To(Succeed())

		token, ok, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(token).To(Equal("second"))
	})

	It("clears the token and tolerates clearing twice", func() {
		Expect(store.Save(ctx, "tok")).To(Succeed())
		Expect(store.Clear(ctx)).To(Succeed())
		Expect(store.Clear(ctx)).To(Succeed())

		_, ok, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
}

var _ = Describe("MemoryStore", func() {
	behavesLikeAStore(func() tokenstore.Store {
		return tokenstore.NewMemoryStore()
	})
})

var _ = Describe("FileStore", func() {
	Context("plain", func() {
		behavesLikeAStore(func() tokenstore.Store {
			return tokenstore.NewFileStore(filepath.Join(GinkgoT().TempDir(), "nested", "token"), nil)
		})
	})

	Context("sealed", func() {
		var key [32]byte

		BeforeEach(func() {
			_, err := rand.Read(key[:])
			Expect(err).NotTo(HaveOccurred())
		})

		behavesLikeAStore(func() tokenstore.Store {
			return tokenstore.NewFileStore(filepath.Join(GinkgoT().TempDir(), "token"), &key)
		})

		It("does not write the token in clear text", func() {
			path := filepath.Join(GinkgoT().TempDir(), "token")
			store := tokenstore.NewFileStore(path, &key)
			Expect(store.Save(context.Background(), "very-secret-token")).To(Succeed())

			raw, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).NotTo(ContainSubstring("very-secret-token"))

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("refuses to open with another key", func() {
			path := filepath.Join(GinkgoT().TempDir(), "token")
			Expect(tokenstore.NewFileStore(path, &key).Save(context.Background(), "tok")).To(Succeed())

			var other [32]byte
			other[0] = key[0] + 1
			_, _, err := tokenstore.NewFileStore(path, &other).Load(context.Background())
			Expect(err).To(MatchError(tokenstore.ErrSealed))
		})
	})
})

var _ = Describe("SQLStore", func() {
	openMigrated := func(name string) *tokenstore.SQLStore {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(tokenstore.Migrate(context.Background(), sqlDB, "sqlite")).To(Succeed())
		return tokenstore.NewSQLStore(db, name)
	}

	behavesLikeAStore(func() tokenstore.Store {
		return openMigrated(internal.DefaultTokenKeyName)
	})

	It("keeps a single row under the fixed name", func() {
		store := openMigrated("token")
		defer store.Close()
		ctx := context.Background()

		Expect(store.Save(ctx, "a")).To(Succeed())
		Expect(store.Save(ctx, "b")).To(Succeed())

		token, ok, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(token).To(Equal("b"))
	})
})

var _ = Describe("Open", func() {
	It("selects the driver from config", func() {
		store, err := tokenstore.Open(context.Background(), internal.TokenStoreConfig{Driver: "memory"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(store).To(BeAssignableToTypeOf(&tokenstore.MemoryStore{}))
	})

	It("opens a sealed file store from a base64 key", func() {
		key := make([]byte, 32)
		cfg := internal.TokenStoreConfig{
			Driver:  "file",
			Path:    filepath.Join(GinkgoT().TempDir(), "token"),
			SealKey: base64.StdEncoding.EncodeToString(key),
		}
		store, err := tokenstore.Open(context.Background(), cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(store).To(BeAssignableToTypeOf(&tokenstore.FileStore{}))
	})

	It("opens and migrates a sqlite file database", func() {
		cfg := internal.TokenStoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join(GinkgoT().TempDir(), "tokens.db"),
		}
		store, err := tokenstore.Open(context.Background(), cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		defer store.Close()

		Expect(store.Save(context.Background(), "tok")).To(Succeed())
		token, ok, err := store.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(token).To(Equal("tok"))
	})

	It("rejects unknown drivers", func() {
		_, err := tokenstore.Open(context.Background(), internal.TokenStoreConfig{Driver: "redis"}, nil)
		Expect(err).To(HaveOccurred())
	})
})
