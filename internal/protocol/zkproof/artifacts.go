package zkproof

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"zkmsg/internal/errs"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

const (
	CircuitFile         = "circuit.r1cs"
	ProvingKeyFile      = "proving.key"
	VerificationKeyFile = "verification_key.json"
)

var quietOnce sync.Once

// quietGnark routes gnark's zerolog output to a disabled logger. gnark logs
// every compile and prove at info level.
func quietGnark() {
	quietOnce.Do(func() {
		gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
	})
}

// Artifacts is everything needed to prove and verify MessageCircuit.
type Artifacts struct {
	CS constraint.ConstraintSystem
	PK groth16.ProvingKey
	VK *VerificationKey
}

func Compile() (constraint.ConstraintSystem, error) {
	quietGnark()
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &MessageCircuit{})
	if err != nil {
		return nil, errs.Wrap(errs.ErrInitialization, err, "compile circuit")
	}
	return cs, nil
}

// Setup compiles the circuit and runs a fresh Groth16 setup. The toxic waste
// is discarded by gnark; the result is suitable for a single deployment only.
func Setup() (*Artifacts, error) {
	cs, err := Compile()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInitialization, err, "groth16 setup")
	}
	v, err := NewVerificationKey(vk)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInitialization, err, "groth16 setup")
	}
	return &Artifacts{CS: cs, PK: pk, VK: v}, nil
}

// Save writes the three artifact files into dir, creating it if needed.
func (a *Artifacts) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeTo(filepath.Join(dir, CircuitFile), a.CS); err != nil {
		return err
	}
	if err := writeTo(filepath.Join(dir, ProvingKeyFile), a.PK); err != nil {
		return err
	}

	data, err := json.MarshalIndent(a.VK, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, VerificationKeyFile), data, 0o644)
}

// LoadArtifacts reads artifacts written by Save.
func LoadArtifacts(dir string) (*Artifacts, error) {
	quietGnark()

	cs := groth16.NewCS(ecc.BN254)
	if err := readFrom(filepath.Join(dir, CircuitFile), cs); err != nil {
		return nil, errs.Wrap(errs.ErrInitialization, err, "load constraint system")
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readFrom(filepath.Join(dir, ProvingKeyFile), pk); err != nil {
		return nil, errs.Wrap(errs.ErrInitialization, err, "load proving key")
	}
	vk, err := LoadVerificationKey(filepath.Join(dir, VerificationKeyFile))
	if err != nil {
		return nil, errs.Wrap(errs.ErrInitialization, err, "load verification key")
	}
	return &Artifacts{CS: cs, PK: pk, VK: vk}, nil
}

func LoadVerificationKey(path string) (*VerificationKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseVerificationKey(data)
}

func writeTo(path string, w io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func readFrom(path string, r io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = r.ReadFrom(f)
	return err
}
