package command

import (
	"encoding/base64"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/seqlink-go/internal/core/keyagree"
)

// KeygenCommand returns the keygen command. Only the public half is
// printed; the private key is wiped before returning.
func KeygenCommand() *cli.Command {
	return &cli.Command{
		Name:   "keygen",
		Usage:  "Generate a P-256 key pair and print its public key (base64 SPKI)",
		Action: keygenAction,
	}
}

// PublicKey is the printed result of keygen.
type PublicKey struct {
	Curve     string `json:"curve" yaml:"curve"`
	Encoding  string `json:"encoding" yaml:"encoding"`
	PublicKey string `json:"public_key" yaml:"public_key"`
}

func keygenAction(c *cli.Context) error {
	kp, err := keyagree.GenerateKeyPair()
	if err != nil {
		return err
	}
	defer kp.Destroy()

	return Print(c, &PublicKey{
		Curve:     "P-256",
		Encoding:  "spki-der-base64",
		PublicKey: base64.StdEncoding.EncodeToString(kp.PublicKey()),
	})
}
