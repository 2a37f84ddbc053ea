package registry

import "time"

// publishTimeCutoff substitutes for a missing publish time when checking key
// validity windows. Using the epoch keeps the check monotone: a key that was
// ever valid is accepted for versions whose publish time is unknown.
var publishTimeCutoff = time.Unix(0, 0).UTC()

// VerifySignatures verifies every registry signature on the manifest's dist
// block against the key set and returns the manifest with the verified
// signature set attached.
//
// The signed message is recomputed as "{name}@{version}:{integrity}"; a
// signature referencing an unknown keyid fails with MissingKeyError, a key
// that expired before the version's publish time (not the current time)
// fails with ExpiredKeyError, and a cryptographic mismatch fails with
// InvalidSignatureError.
func VerifySignatures(m *Manifest, keys KeySet) (*Manifest, error) {
	effective := publishTimeCutoff
	if m.PublishTime != nil {
		effective = *m.PublishTime
	}

	message := []byte(m.ID() + ":" + m.Meta.Dist.Integrity)

	for _, sig := range m.Meta.Dist.Signatures {
		key := keys.Find(sig.KeyID)
		if key == nil {
			return nil, &MissingKeyError{PackageID: m.ID(), KeyID: sig.KeyID}
		}

		if expiry, expired := key.ExpiredBefore(effective); expired {
			return nil, &ExpiredKeyError{
				PackageID: m.ID(),
				KeyID:     sig.KeyID,
				Expired:   expiry,
				Effective: effective,
			}
		}

		publicKey, err := key.PublicKey()
		if err != nil {
			return nil, &InvalidSignatureError{PackageID: m.ID(), KeyID: sig.KeyID, Reason: err.Error()}
		}

		if err := verifyECDSA(publicKey, sig.Sig, message); err != nil {
			return nil, &InvalidSignatureError{PackageID: m.ID(), KeyID: sig.KeyID, Reason: err.Error()}
		}
	}

	m.VerifiedSignatures = m.Meta.Dist.Signatures

	return m, nil
}
