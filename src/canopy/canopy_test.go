package canopy

import (
	"testing"

	"github.com/arborworks/canopy/src/config"
	"github.com/arborworks/canopy/src/forest"
	"github.com/arborworks/canopy/src/submitter"
	"github.com/sirupsen/logrus"
)

func newTestCanopy(t *testing.T) *Canopy {
	conf := config.NewTestConfig(t, logrus.ErrorLevel)
	conf.SetDataDir(t.TempDir())
	conf.NoService = true

	engine := NewCanopy(conf)
	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestInitGeneratesKey(t *testing.T) {
	engine := newTestCanopy(t)

	if engine.Config.Key == nil {
		t.Fatal("Init should generate a key when none exists")
	}

	// A second engine over the same datadir must pick up the same key.
	conf := config.NewTestConfig(t, logrus.ErrorLevel)
	conf.SetDataDir(engine.Config.DataDir)
	conf.NoService = true

	second := NewCanopy(conf)
	if err := second.Init(); err != nil {
		t.Fatal(err)
	}

	if second.Config.Key.D.Cmp(engine.Config.Key.D) != 0 {
		t.Fatal("the persisted key should be reused across engines")
	}
}

func TestSubmit(t *testing.T) {
	engine := newTestCanopy(t)
	client := engine.Client.(*submitter.InmemClient)

	var authority forest.Authority
	authority[0] = 7

	index, confirmation, err := engine.Submit(authority, []byte("mint"))
	if err != nil {
		t.Fatal(err)
	}

	if index != 0 {
		t.Fatalf("first leaf should land at index 0, got %d", index)
	}
	if confirmation == "" {
		t.Fatal("submit should return a confirmation id")
	}

	sent := client.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent transaction, got %d", len(sent))
	}

	cert := sent[0].Certification
	if len(cert.Root) != 32 || len(cert.LeafHash) != 32 {
		t.Fatal("the certification should carry 32-byte digests")
	}
	if len(cert.Proof) != engine.Config.MaxDepth {
		t.Fatalf("expected a %d-level proof, got %d", engine.Config.MaxDepth, len(cert.Proof))
	}
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	engine := newTestCanopy(t)

	if _, err := Keygen(engine.Config.Keyfile()); err == nil {
		t.Fatal("keygen should refuse to overwrite an existing key")
	}
}

func TestShutdownPersistsTrees(t *testing.T) {
	conf := config.NewTestConfig(t, logrus.ErrorLevel)
	conf.SetDataDir(t.TempDir())
	conf.Backend = config.BackendBadger
	conf.NoService = true
	conf.MaxDepth = 3

	engine := NewCanopy(conf)
	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}

	var authority forest.Authority
	authority[0] = 9

	if _, _, err := engine.Forest.InsertLeaf(authority, []byte("record")); err != nil {
		t.Fatal(err)
	}

	if err := engine.Shutdown(); err != nil {
		t.Fatal(err)
	}

	// Reopen over the same datadir and check the leaf survived.
	reopened := NewCanopy(conf)
	if err := reopened.Init(); err != nil {
		t.Fatal(err)
	}
	defer reopened.Shutdown()

	count, _, err := reopened.Forest.Info(authority)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 persisted leaf, got %d", count)
	}
}
