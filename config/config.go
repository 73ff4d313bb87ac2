// Package config holds per-network raffle deployment parameters.
package config

import (
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/raffleutil"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RAFFLE_"

const (
	// LocalChainID is the chain id of local development networks.
	LocalChainID = 31337
	// SepoliaChainID is the chain id of the sepolia test network.
	SepoliaChainID = 11155111
)

// DevelopmentChains are the networks for which a mock coordinator is
// deployed.
var DevelopmentChains = []string{"hardhat", "localhost"}

// Network is the deployment configuration of a raffle on one chain.
type Network struct {
	ChainID uint64 `toml:"chain_id"`
	Name    string `toml:"name"`
	// EntranceFee is in ether, e.g. "0.02".
	EntranceFee      string `toml:"entrance_fee" env:"ENTRANCE_FEE"`
	GasLane          string `toml:"gas_lane" env:"GAS_LANE"`
	SubscriptionID   uint64 `toml:"subscription_id" env:"SUBSCRIPTION_ID"`
	CallbackGasLimit uint32 `toml:"callback_gas_limit" env:"CALLBACK_GAS_LIMIT"`
	// IntervalSeconds is the minimum time between draws.
	IntervalSeconds  uint64 `toml:"interval" env:"INTERVAL"`
	MinConfirmations uint16 `toml:"min_confirmations" env:"MIN_CONFIRMATIONS"`
	NumWords         uint32 `toml:"num_words" env:"NUM_WORDS"`
	// VRFCoordinator is the address of the external coordinator. It is empty
	// on development chains.
	VRFCoordinator string `toml:"vrf_coordinator" env:"VRF_COORDINATOR"`
}

const defaultGasLane = "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"

// Defaults returns the built-in networks keyed by chain id.
func Defaults() map[uint64]Network {
	return map[uint64]Network{
		LocalChainID: {
			ChainID:          LocalChainID,
			Name:             "localhost",
			EntranceFee:      "0.02",
			GasLane:          defaultGasLane,
			CallbackGasLimit: 500000,
			IntervalSeconds:  5,
			MinConfirmations: lottery.DefaultMinConfirmations,
			NumWords:         lottery.DefaultNumWords,
		},
		SepoliaChainID: {
			ChainID:          SepoliaChainID,
			Name:             "sepolia",
			EntranceFee:      "0.01",
			GasLane:          defaultGasLane,
			SubscriptionID:   0,
			CallbackGasLimit: 500000,
			IntervalSeconds:  30,
			MinConfirmations: lottery.DefaultMinConfirmations,
			NumWords:         lottery.DefaultNumWords,
			VRFCoordinator:   "0x8103B0A8A00be2DDC778e6e7eaa21791Cd364625",
		},
	}
}

// IsDevelopment reports whether name is a development chain.
func IsDevelopment(name string) bool {
	for _, n := range DevelopmentChains {
		if n == name {
			return true
		}
	}
	return false
}

// Config is the set of known networks.
type Config struct {
	Networks map[uint64]Network
}

type fileFormat struct {
	Networks map[string]toml.Primitive `toml:"networks"`
}

// Load returns the built-in networks overridden by the TOML file at path.
// path may be empty. Networks are tables keyed by chain id:
//
//	[networks.31337]
//	entrance_fee = "0.05"
func Load(path string) (*Config, error) {
	c := &Config{Networks: Defaults()}
	if path == "" {
		return c, nil
	}
	var f fileFormat
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse config file %s", path)
	}
	if err := c.merge(md, f); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}
	return c, nil
}

// Parse is like Load but reads the TOML document from data.
func Parse(data string) (*Config, error) {
	c := &Config{Networks: Defaults()}
	var f fileFormat
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}
	if err := c.merge(md, f); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) merge(md toml.MetaData, f fileFormat) error {
	for key, prim := range f.Networks {
		chainID, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return errors.Errorf("network key %q is not a chain id", key)
		}
		n := c.Networks[chainID]
		if err := md.PrimitiveDecode(prim, &n); err != nil {
			return errors.Wrapf(err, "network %d", chainID)
		}
		n.ChainID = chainID
		c.Networks[chainID] = n
	}
	return nil
}

// Lookup returns the network named name or with chain id name. Development
// chain names resolve to the local chain.
func (c *Config) Lookup(name string) (Network, error) {
	if id, err := strconv.ParseUint(name, 10, 64); err == nil {
		if n, ok := c.Networks[id]; ok {
			return n, nil
		}
	}
	for _, id := range c.chainIDs() {
		if c.Networks[id].Name == name {
			return c.Networks[id], nil
		}
	}
	if IsDevelopment(name) {
		if n, ok := c.Networks[LocalChainID]; ok {
			n.Name = name
			return n, nil
		}
	}
	return Network{}, errors.Errorf("unknown network %q", name)
}

func (c *Config) chainIDs() []uint64 {
	ids := make([]uint64, 0, len(c.Networks))
	for id := range c.Networks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ApplyEnv overrides fields of n from RAFFLE_* variables in environ. If
// environ is nil the process environment is used.
func ApplyEnv(n Network, environ map[string]string) (Network, error) {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&n, opts); err != nil {
		return Network{}, errors.Wrap(err, "could not parse environment")
	}
	return n, nil
}

// Development reports whether n is a development chain.
func (n Network) Development() bool {
	return IsDevelopment(n.Name)
}

// Interval returns IntervalSeconds as a duration.
func (n Network) Interval() time.Duration {
	return time.Duration(n.IntervalSeconds) * time.Second
}

// RaffleConfig converts n to the parameters of a raffle.
func (n Network) RaffleConfig() (lottery.Config, error) {
	fee, err := raffleutil.ParseEther(n.EntranceFee)
	if err != nil {
		return lottery.Config{}, errors.Wrapf(err, "network %s", n.Name)
	}
	if fee.Sign() <= 0 {
		return lottery.Config{}, errors.Errorf("network %s: entrance fee must be positive", n.Name)
	}
	numWords := n.NumWords
	if numWords == 0 {
		numWords = lottery.DefaultNumWords
	}
	return lottery.Config{
		EntranceFee:      fee,
		Interval:         n.Interval(),
		KeyHash:          n.GasLane,
		SubscriptionID:   n.SubscriptionID,
		MinConfirmations: n.MinConfirmations,
		CallbackGasLimit: n.CallbackGasLimit,
		NumWords:         numWords,
	}, nil
}
