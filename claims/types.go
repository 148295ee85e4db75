package claims

// Standard OpenID Connect claim types.
const (
	Issuer        = "iss"
	Subject       = "sub"
	BirthDate     = "birthdate"
	Email         = "email"
	EmailVerified = "email_verified"
	FamilyName    = "family_name"
	GivenName     = "given_name"
	Name          = "name"
	PhoneNumber   = "phone_number"
	Address       = "address"
)

// Vipps specific claim types.
const (
	NationalIdentityNumber = "nnin"
	OtherAddresses         = "other_addresses"
)

// LegacyNamespace is the WS-Federation claim namespace used by older identity middleware.
const LegacyNamespace = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/"

// Legacy claim types, kept as fallbacks when a middleware maps OIDC names onto them.
const (
	LegacyNameIdentifier = LegacyNamespace + "nameidentifier"
	LegacyDateOfBirth    = LegacyNamespace + "dateofbirth"
	LegacyEmail          = LegacyNamespace + "emailaddress"
	LegacySurname        = LegacyNamespace + "surname"
	LegacyGivenName      = LegacyNamespace + "givenname"
	LegacyName           = LegacyNamespace + "name"
	LegacyHomePhone      = LegacyNamespace + "homephone"
	LegacyMobilePhone    = LegacyNamespace + "mobilephone"
	LegacyOtherPhone     = LegacyNamespace + "otherphone"
)
