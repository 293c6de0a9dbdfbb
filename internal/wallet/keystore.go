package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

const (
	keyfileVersion = 1
	keyfileExt     = ".key"
)

// ErrWalletNotFound is returned for an unknown wallet name.
var ErrWalletNotFound = errors.New("wallet not found")

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Account is a derived address recorded in a keyfile.
type Account struct {
	Path    Path          `json:"path"`
	Address types.Address `json:"address"`
	Label   string        `json:"label,omitempty"`
}

type keyfile struct {
	Version   int       `json:"version"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Seed      *Sealed   `json:"seed"`
	Accounts  []Account `json:"accounts"`
}

// Keystore keeps one encrypted seed per wallet name in a directory.
type Keystore struct {
	dir string
}

// OpenKeystore uses dir, creating it with owner-only permissions.
func OpenKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) file(name string) string {
	return filepath.Join(ks.dir, name+keyfileExt)
}

// Create seals the seed of phrase under password and records the
// account at index 0. It returns that account.
func (ks *Keystore) Create(name, phrase, passphrase string, password []byte, p KDFParams) (Account, error) {
	if !validName.MatchString(name) {
		return Account{}, fmt.Errorf("invalid wallet name %q", name)
	}
	if _, err := os.Stat(ks.file(name)); err == nil {
		return Account{}, fmt.Errorf("wallet %q already exists", name)
	}
	seed, err := MnemonicSeed(phrase, passphrase)
	if err != nil {
		return Account{}, err
	}
	defer wipe(seed)

	acct, err := accountAt(seed, Path{}, "default")
	if err != nil {
		return Account{}, err
	}
	sealed, err := Seal(seed, password, p)
	if err != nil {
		return Account{}, err
	}
	kf := &keyfile{
		Version:   keyfileVersion,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Seed:      sealed,
		Accounts:  []Account{acct},
	}
	return acct, ks.write(kf)
}

// Signer unlocks wallet name and returns the key at p.
func (ks *Keystore) Signer(name string, password []byte, p Path) (*crypto.PrivateKey, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	seed, err := kf.Seed.Open(password)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	return SignerAt(seed, p)
}

// Derive unlocks wallet name, records the account at p and returns it.
// Deriving an already recorded path is a no-op.
func (ks *Keystore) Derive(name string, password []byte, p Path, label string) (Account, error) {
	kf, err := ks.read(name)
	if err != nil {
		return Account{}, err
	}
	for _, a := range kf.Accounts {
		if a.Path == p {
			return a, nil
		}
	}
	seed, err := kf.Seed.Open(password)
	if err != nil {
		return Account{}, err
	}
	defer wipe(seed)

	acct, err := accountAt(seed, p, label)
	if err != nil {
		return Account{}, err
	}
	kf.Accounts = append(kf.Accounts, acct)
	sort.Slice(kf.Accounts, func(i, j int) bool {
		a, b := kf.Accounts[i].Path, kf.Accounts[j].Path
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		return a.Index < b.Index
	})
	return acct, ks.write(kf)
}

// Accounts lists the recorded accounts of wallet name without unlocking it.
func (ks *Keystore) Accounts(name string) ([]Account, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	return kf.Accounts, nil
}

// Names lists the wallets in the keystore.
func (ks *Keystore) Names() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != keyfileExt {
			continue
		}
		names = append(names, e.Name()[:len(e.Name())-len(keyfileExt)])
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes wallet name.
func (ks *Keystore) Remove(name string) error {
	err := os.Remove(ks.file(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	return err
}

func accountAt(seed []byte, p Path, label string) (Account, error) {
	signer, err := SignerAt(seed, p)
	if err != nil {
		return Account{}, err
	}
	defer signer.Zero()
	return Account{Path: p, Address: signer.Address(), Label: label}, nil
}

func (ks *Keystore) write(kf *keyfile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode keyfile: %w", err)
	}
	tmp := ks.file(kf.Name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write keyfile: %w", err)
	}
	return os.Rename(tmp, ks.file(kf.Name))
}

func (ks *Keystore) read(name string) (*keyfile, error) {
	data, err := os.ReadFile(ks.file(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read keyfile: %w", err)
	}
	var kf keyfile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("decode keyfile: %w", err)
	}
	if kf.Version != keyfileVersion {
		return nil, fmt.Errorf("keyfile version %d not supported", kf.Version)
	}
	if kf.Seed == nil {
		return nil, errors.New("keyfile has no seed")
	}
	return &kf, nil
}
