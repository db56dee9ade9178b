package host

import "testing"

func TestCryptoMethodMask_KnownTokens(t *testing.T) {
	minVer, maxVer, err := cryptoMethodMask("tls1.2 tls1.1")
	if err != nil {
		t.Fatalf("cryptoMethodMask: %v", err)
	}
	if minVer == 0 || maxVer == 0 || minVer > maxVer {
		t.Errorf("min=%d max=%d", minVer, maxVer)
	}
}

func TestCryptoMethodMask_EmptyIsError(t *testing.T) {
	if _, _, err := cryptoMethodMask("bogus-token another-bogus"); err == nil {
		t.Error("expected an error for an empty resulting bitmask")
	}
}

func TestCryptoMethodMask_UnknownTokensIgnored(t *testing.T) {
	if _, _, err := cryptoMethodMask("bogus-token tls1.2"); err != nil {
		t.Errorf("unexpected error with at least one known token: %v", err)
	}
}
