package saml

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strconv"

	saml2 "github.com/russellhaering/gosaml2"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
)

// Attribute names as the identity provider asserts them.
const (
	attrUUID      = "uuid"
	attrEmail     = "email"
	attrFirstName = "fname"
	attrLastName  = "lname"
	attrSSN       = "social"
	attrICN       = "icn"
	attrLOA       = "level_of_assurance"
)

// Config carries the identity-provider integration endpoints and key
// material locations.
type Config struct {
	IdPSSOURL   string
	IdPSLOURL   string
	IdPIssuer   string
	SPIssuer    string
	CallbackURL string
	IdPCertPEM  []byte
	SPCertFile  string
	SPKeyFile   string
}

// Provider validates SAML responses and builds identity-provider URLs. It
// implements ports.SAMLProvider on top of gosaml2.
type Provider struct {
	sp *saml2.SAMLServiceProvider
}

// NewProvider builds a provider from config. When no service-provider
// keypair is configured an ephemeral one is generated, which is only
// suitable outside production.
func NewProvider(cfg Config) (*Provider, error) {
	certStore := dsig.MemoryX509CertificateStore{}
	rest := cfg.IdPCertPEM
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse idp certificate: %w", err)
		}
		certStore.Roots = append(certStore.Roots, cert)
	}
	if len(certStore.Roots) == 0 {
		return nil, fmt.Errorf("no identity provider certificate configured")
	}

	var keyStore dsig.X509KeyStore
	if cfg.SPCertFile != "" && cfg.SPKeyFile != "" {
		pair, err := tls.LoadX509KeyPair(cfg.SPCertFile, cfg.SPKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load sp keypair: %w", err)
		}
		keyStore = dsig.TLSCertKeyStore(pair)
	} else {
		keyStore = dsig.RandomKeyStoreForTest()
	}

	sp := &saml2.SAMLServiceProvider{
		IdentityProviderSSOURL:      cfg.IdPSSOURL,
		IdentityProviderSLOURL:      cfg.IdPSLOURL,
		IdentityProviderIssuer:      cfg.IdPIssuer,
		ServiceProviderIssuer:       cfg.SPIssuer,
		AssertionConsumerServiceURL: cfg.CallbackURL,
		AudienceURI:                 cfg.SPIssuer,
		SignAuthnRequests:           true,
		IDPCertificateStore:         &certStore,
		SPKeyStore:                  keyStore,
		NameIdFormat:                saml2.NameIdFormatPersistent,
	}
	return &Provider{sp: sp}, nil
}

// BuildLoginURL builds the redirect URL for an authentication request
// carrying the given authentication context class.
func (p *Provider) BuildLoginURL(_ context.Context, authnContext, relayState string) (string, error) {
	sp := *p.sp
	sp.RequestedAuthnContext = &saml2.RequestedAuthnContext{
		Comparison: "exact",
		Contexts:   []string{authnContext},
	}
	url, err := sp.BuildAuthURL(relayState)
	if err != nil {
		return "", fmt.Errorf("build auth url: %w", err)
	}
	return url, nil
}

// BuildLogoutURL builds the redirect URL for a single-logout request naming
// the session to terminate at the identity provider.
func (p *Provider) BuildLogoutURL(_ context.Context, relayState, nameID, sessionIndex string) (string, error) {
	doc, err := p.sp.BuildLogoutRequestDocument(nameID, sessionIndex)
	if err != nil {
		return "", fmt.Errorf("build logout request: %w", err)
	}
	url, err := p.sp.BuildLogoutURLRedirect(relayState, doc)
	if err != nil {
		return "", fmt.Errorf("build logout url: %w", err)
	}
	return url, nil
}

// ValidateLoginResponse verifies the signature and conditions of an encoded
// login response and extracts the asserted identity. Failed validation is
// returned as *domain.ValidationError with the matching numeric code.
func (p *Provider) ValidateLoginResponse(_ context.Context, encodedResponse string) (ports.Assertion, error) {
	info, err := p.sp.RetrieveAssertionInfo(encodedResponse)
	if err != nil {
		return ports.Assertion{}, &domain.ValidationError{
			Code:     ports.SAMLErrorValidationFailed,
			Messages: []string{err.Error()},
		}
	}
	if info.WarningInfo.InvalidTime {
		return ports.Assertion{}, &domain.ValidationError{
			Code:     ports.SAMLErrorAuthTooLate,
			Messages: []string{"assertion outside its validity window"},
		}
	}
	if info.WarningInfo.NotInAudience {
		return ports.Assertion{}, &domain.ValidationError{
			Code:     ports.SAMLErrorValidationFailed,
			Messages: []string{"assertion audience mismatch"},
		}
	}

	identity, missing := extractIdentity(info)
	if len(missing) > 0 {
		return ports.Assertion{}, &domain.ValidationError{
			Code:     ports.SAMLErrorMissingAttributes,
			Messages: missing,
		}
	}

	return ports.Assertion{
		InResponseTo: inResponseTo(info),
		NameID:       info.NameID,
		AuthnContext: info.Values.Get("authncontextclassref"),
		SessionIndex: info.SessionIndex,
		Identity:     identity,
	}, nil
}

// ValidateLogoutResponse verifies an encoded logout response from the POST
// binding and returns the request reference it answers.
func (p *Provider) ValidateLogoutResponse(_ context.Context, encodedResponse string) (ports.LogoutResult, error) {
	response, err := p.sp.ValidateEncodedLogoutResponsePOST(encodedResponse)
	if err != nil {
		return ports.LogoutResult{}, &domain.ValidationError{
			Code:     ports.SAMLErrorValidationFailed,
			Messages: []string{err.Error()},
		}
	}
	return ports.LogoutResult{InResponseTo: response.InResponseTo}, nil
}

func extractIdentity(info *saml2.AssertionInfo) (domain.UserIdentity, []string) {
	var missing []string

	rawUUID := info.Values.Get(attrUUID)
	accountUUID, err := uuid.Parse(rawUUID)
	if rawUUID == "" || err != nil {
		missing = append(missing, attrUUID)
	}
	email := info.Values.Get(attrEmail)
	if email == "" {
		missing = append(missing, attrEmail)
	}

	loa := 0
	if raw := info.Values.Get(attrLOA); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			loa = n
		}
	}

	return domain.UserIdentity{
		AccountUUID: accountUUID,
		Email:       email,
		FirstName:   info.Values.Get(attrFirstName),
		LastName:    info.Values.Get(attrLastName),
		SSN:         info.Values.Get(attrSSN),
		ICN:         info.Values.Get(attrICN),
		LOA:         loa,
	}, missing
}

func inResponseTo(info *saml2.AssertionInfo) string {
	for _, assertion := range info.Assertions {
		if assertion.Subject == nil || assertion.Subject.SubjectConfirmation == nil {
			continue
		}
		data := assertion.Subject.SubjectConfirmation.SubjectConfirmationData
		if data != nil && data.InResponseTo != "" {
			return data.InResponseTo
		}
	}
	return ""
}
