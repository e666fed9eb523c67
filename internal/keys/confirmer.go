package keys

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the operator to approve trust decisions the store cannot
// make on its own. Interactive runs prompt on stdin/stdout; `--force-yes`
// runs use a Confirmer that answers every question the safe way for
// automation (accepting new keys on first contact, refusing to accept a
// changed key).
type Confirmer interface {
	// AskTrustNewKey is asked the first time a signed package from
	// namespace/name is seen from a publisher with no prior trusted key.
	AskTrustNewKey(namespace, name, keyID string) (bool, error)

	// AskReplaceKey is asked when a publisher who already has a trusted
	// key publishes with a different, unrevoked key.
	AskReplaceKey(namespace, name, oldKeyID, newKeyID string) (bool, error)
}

// InteractiveConfirmer prompts on an arbitrary reader/writer pair,
// following the same bufio.Scanner "yes/no, default no" pattern the
// teacher uses for confirming destructive removals.
type InteractiveConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c InteractiveConfirmer) AskTrustNewKey(namespace, name, keyID string) (bool, error) {
	fmt.Fprintf(c.Out, "Package %s/%s is signed with a key wapm has not seen before (%s).\n", namespace, name, keyID)
	return c.confirm("Trust this key for future installs of this publisher? [y/N] ")
}

func (c InteractiveConfirmer) AskReplaceKey(namespace, name, oldKeyID, newKeyID string) (bool, error) {
	fmt.Fprintf(c.Out, "Package %s/%s is signed with key %s, but wapm has previously trusted %s for this publisher.\n", namespace, name, newKeyID, oldKeyID)
	fmt.Fprintln(c.Out, "This can mean the publisher rotated their key, or that the package has been tampered with.")
	return c.confirm("Trust the new key anyway? [y/N] ")
}

func (c InteractiveConfirmer) confirm(prompt string) (bool, error) {
	fmt.Fprint(c.Out, prompt)
	scanner := bufio.NewScanner(c.In)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}

// ForceConfirmer implements --force-yes: it accepts first-contact keys
// (TOFU) but never silently accepts a key rotation, since that is exactly
// the case unattended automation should not wave through.
type ForceConfirmer struct{}

func (ForceConfirmer) AskTrustNewKey(namespace, name, keyID string) (bool, error) {
	return true, nil
}

func (ForceConfirmer) AskReplaceKey(namespace, name, oldKeyID, newKeyID string) (bool, error) {
	return false, nil
}
