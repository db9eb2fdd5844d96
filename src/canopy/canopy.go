package canopy

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/arborworks/canopy/src/config"
	"github.com/arborworks/canopy/src/crypto"
	"github.com/arborworks/canopy/src/crypto/keys"
	"github.com/arborworks/canopy/src/forest"
	"github.com/arborworks/canopy/src/limiter"
	"github.com/arborworks/canopy/src/service"
	"github.com/arborworks/canopy/src/submitter"
)

// Canopy is the top-level object which ties together the tree registry, the
// durable store, the transaction submitter, and the HTTP API service.
type Canopy struct {
	Config    *config.Config
	Store     forest.Store
	Forest    *forest.Forest
	Submitter *submitter.Submitter
	Service   *service.Service

	// Client is the remote submission collaborator. When left nil, Init
	// installs an in-memory client that confirms everything, which is useful
	// for local operation and testing.
	Client submitter.Client
}

// NewCanopy instantiates a Canopy engine from a config object. Call Init
// before Run.
func NewCanopy(config *config.Config) *Canopy {
	return &Canopy{
		Config: config,
	}
}

func (c *Canopy) initStore() error {
	var err error

	switch c.Config.Backend {
	case config.BackendInmem:
		c.Store = forest.NewInmemStore()

		c.Config.Logger().Debug("Created new in-mem store")
	case config.BackendBadger:
		c.Config.Logger().WithField("path", c.Config.DatabaseDir).Debug("Opening badger store")

		c.Store, err = forest.NewBadgerStore(c.Config.DatabaseDir)
	case config.BackendLevelDB:
		c.Config.Logger().WithField("path", c.Config.DatabaseDir).Debug("Opening leveldb store")

		c.Store, err = forest.NewLevelStore(c.Config.DatabaseDir)
	default:
		err = fmt.Errorf("unknown store backend %q", c.Config.Backend)
	}

	return err
}

func (c *Canopy) initKey() error {
	if c.Config.Key == nil {
		keyfile := keys.NewSimpleKeyfile(c.Config.Keyfile())

		privKey, err := keyfile.ReadKey()
		if err != nil {
			c.Config.Logger().WithError(err).Warn("Cannot read private key from file")

			privKey, err = Keygen(c.Config.Keyfile())
			if err != nil {
				c.Config.Logger().WithError(err).Error("Cannot generate a new private key")
				return err
			}

			pub := keys.PublicKeyHex(&privKey.PublicKey)

			c.Config.Logger().WithField("public_key", pub).Info("Created a new key")
		}

		c.Config.Key = privKey
	}
	return nil
}

func (c *Canopy) initForest() error {
	c.Forest = forest.NewForest(c.Store, c.Config.MaxDepth, c.Config.Logger())
	return nil
}

func (c *Canopy) initSubmitter() error {
	if c.Client == nil {
		c.Client = submitter.NewInmemClient()
	}

	rl := limiter.NewSlidingWindowLimiter(c.Config.WindowSize, c.Config.MaxRequests)

	c.Submitter = submitter.NewSubmitter(c.Client, rl, c.Config.RetryConfig(), c.Config.Logger())

	if c.Config.NoSimulation {
		c.Submitter.DisableSimulation()
	}

	return nil
}

func (c *Canopy) initService() error {
	if !c.Config.NoService && c.Config.ServiceAddr != "" {
		c.Service = service.NewService(c.Config.ServiceAddr, c.Forest, c.Config.Logger())
	}
	return nil
}

// Init initializes the engine based on the values of its Config object.
func (c *Canopy) Init() error {
	if err := c.initStore(); err != nil {
		return err
	}

	if err := c.initKey(); err != nil {
		return err
	}

	if err := c.initForest(); err != nil {
		return err
	}

	if err := c.initSubmitter(); err != nil {
		return err
	}

	if err := c.initService(); err != nil {
		return err
	}

	return nil
}

// Submit appends a record to an authority's tree and pushes a certified
// transaction for it to the remote network. It returns the leaf index and the
// confirmation identifier.
func (c *Canopy) Submit(authority forest.Authority, payload []byte) (int, string, error) {
	index, _, err := c.Forest.InsertLeaf(authority, payload)
	if err != nil {
		return 0, "", err
	}

	proof, root, err := c.Forest.Proof(authority, index)
	if err != nil {
		return 0, "", err
	}

	tx := &submitter.Transaction{
		Payload: payload,
		Certification: submitter.Certification{
			Root:      root,
			LeafHash:  crypto.Keccak256(payload),
			Proof:     proof,
			LeafIndex: index,
		},
	}

	confirmation, err := c.Submitter.Submit(tx, c.Config.Key)
	if err != nil {
		return 0, "", err
	}

	return index, confirmation, nil
}

// Run starts the API service. This is a blocking call.
func (c *Canopy) Run() {
	if c.Service == nil {
		c.Config.Logger().Warn("No service configured, nothing to run")
		return
	}

	c.Service.Serve()
}

// Shutdown flushes every resident tree and closes the store.
func (c *Canopy) Shutdown() error {
	for _, authority := range c.Forest.Authorities() {
		if err := c.Forest.SaveTreeState(authority); err != nil {
			return err
		}
	}

	return c.Store.Close()
}

// Keygen generates a new key and writes it to keyfile. It refuses to
// overwrite an existing key.
func Keygen(keyfile string) (*ecdsa.PrivateKey, error) {
	simpleKeyfile := keys.NewSimpleKeyfile(keyfile)

	if _, err := simpleKeyfile.ReadKey(); err == nil {
		return nil, fmt.Errorf("another key already lives under %s", keyfile)
	}

	privKey, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}

	if err := simpleKeyfile.WriteKey(privKey); err != nil {
		return nil, err
	}

	return privKey, nil
}
