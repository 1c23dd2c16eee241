package plugins

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// Auth exposes the authenticated caller.
type Auth struct {
	now func() time.Time
}

func NewAuth(d Deps) *Auth { return &Auth{now: d.Now} }

func (*Auth) Name() string { return "Auth" }
func (*Auth) Description() string {
	return "Authentication and authorization service for user session management and access control"
}

func (a *Auth) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "GetCurrentUser",
		Description: "Retrieves current authenticated user information from active session. Essential for personalizing service and checking permissions.",
		Params:      []schema.Param{str("sessionId", "Active session identifier from user's authentication token")},
		Invoke: func(_ context.Context, args schema.Args) (any, error) {
			return map[string]any{
				"userId":              "u123",
				"sessionId":           args.String("sessionId"),
				"roles":               []string{"customer", "verified"},
				"name":                "Anna Novak",
				"accountType":         "individual",
				"authenticationLevel": "strong",
				"sessionExpiry":       a.now().Add(2 * time.Hour),
			}, nil
		},
	}}
}

// Guardrails answers consent questions before personal data is processed.
type Guardrails struct {
	now func() time.Time
}

func NewGuardrails(d Deps) *Guardrails { return &Guardrails{now: d.Now} }

func (*Guardrails) Name() string { return "Guardrails" }
func (*Guardrails) Description() string {
	return "Data protection and consent management system ensuring GDPR compliance and customer privacy rights"
}

func (g *Guardrails) Operations() []schema.Operation {
	return []schema.Operation{{
		Name:        "CheckConsent",
		Description: "Verifies customer consent for specific data processing purposes. Required for GDPR compliance before accessing or processing personal data.",
		Params: []schema.Param{
			str("userId", "Customer user ID to check consent status for"),
			str("purpose", "Purpose of data processing: 'marketing', 'service_delivery', 'analytics', 'third_party_sharing'"),
		},
		Invoke: g.checkConsent,
	}}
}

func (g *Guardrails) checkConsent(_ context.Context, args schema.Args) (any, error) {
	now := g.now()
	return map[string]any{
		"granted":      true,
		"consentId":    newID("consent"),
		"userId":       args.String("userId"),
		"grantedAt":    now.AddDate(0, 0, -30),
		"purpose":      args.String("purpose"),
		"expiresAt":    now.AddDate(0, 12, 0),
		"canProceed":   true,
		"restrictions": []string{},
	}, nil
}

var kycDocTypes = map[string]bool{
	"passport":        true,
	"id_card":         true,
	"drivers_license": true,
}

// KYC verifies customer identity documents.
type KYC struct {
	now func() time.Time
}

func NewKYC(d Deps) *KYC { return &KYC{now: d.Now} }

func (*KYC) Name() string { return "KYC" }
func (*KYC) Description() string {
	return "Know Your Customer (KYC) identity verification service for regulatory compliance and fraud prevention"
}

func (k *KYC) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "VerifyIdentity",
			Description: "Verifies customer identity using government-issued documents like passport or ID card. Required for telecommunications service activation per regulatory requirements.",
			Params: []schema.Param{
				optional(str("userId", "Existing user ID if customer has an account, or null for new customers")),
				str("docType", "Type of document uploaded: 'passport', 'id_card', 'drivers_license'"),
				str("docRef", "Document reference/storage path (e.g., 'storage://kyc/doc123.jpg')"),
			},
			Invoke: k.verifyIdentity,
		},
		{
			Name:        "GetVerificationStatus",
			Description: "Get KYC verification status",
			Params:      []schema.Param{str("verificationId", "Verification identifier returned by VerifyIdentity")},
			Invoke: func(_ context.Context, args schema.Args) (any, error) {
				now := k.now()
				return map[string]any{
					"verificationId": args.String("verificationId"),
					"status":         "verified",
					"verifiedAt":     now.Add(-5 * time.Minute),
					"validUntil":     now.AddDate(2, 0, 0),
				}, nil
			},
		},
		{
			Name:        "RequestAdditionalDocs",
			Description: "Request additional documents for KYC",
			Params: []schema.Param{
				str("verificationId", "Verification identifier returned by VerifyIdentity"),
				strList("requiredDocs", "Documents the customer still has to upload"),
			},
			Invoke: func(_ context.Context, args schema.Args) (any, error) {
				return map[string]any{
					"verificationId":     args.String("verificationId"),
					"status":             "pending_additional_docs",
					"requiredDocuments":  args.Strings("requiredDocs"),
					"uploadInstructions": "Please upload clear photos of your documents",
				}, nil
			},
		},
	}
}

func (k *KYC) verifyIdentity(_ context.Context, args schema.Args) (any, error) {
	docType := args.String("docType")
	if !kycDocTypes[docType] {
		return nil, fmt.Errorf("unsupported document type %q", docType)
	}
	return map[string]any{
		"verificationId":    newID("kyc"),
		"status":            "verified",
		"documentType":      docType,
		"documentReference": args.String("docRef"),
		"verifiedAt":        k.now(),
		"confidence":        0.98,
		"extractedData": map[string]any{
			"fullName":       "John Doe",
			"dateOfBirth":    "1985-03-15",
			"nationality":    "Austrian",
			"documentNumber": "P1234567",
			"expiryDate":     "2030-03-15",
		},
		"riskScore":        "low",
		"complianceStatus": "passed",
		"nextSteps":        "Identity verification complete - proceed with service activation",
	}, nil
}

type piiPattern struct {
	kind        string
	re          *regexp.Regexp
	replacement string
}

// Order matters: addresses carry digits the phone pattern would grab.
var piiPatterns = []piiPattern{
	{"email_addresses", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`), "[REDACTED_EMAIL]"},
	{"addresses", regexp.MustCompile(`\b\d{4}\s+\p{Lu}\p{Ll}+,\s*\p{L}+\s+\d+\b|\b\p{Lu}\p{L}*(?:gasse|straße|strasse|weg|platz|ring)\s+\d+\b(?:,\s*\d{4}\s+\p{Lu}\p{Ll}+)?`), "[REDACTED_ADDRESS]"},
	{"document_numbers", regexp.MustCompile(`\b[A-Z]{1,2}\d{6,8}\b`), "[REDACTED_DOCUMENT]"},
	{"phone_numbers", regexp.MustCompile(`\+?\d[\d\s/-]{7,}\d`), "[REDACTED_PHONE]"},
}

// Redaction strips personal data from free text.
type Redaction struct{}

func (Redaction) Name() string { return "Redaction" }
func (Redaction) Description() string {
	return "Privacy protection service that automatically detects and redacts personally identifiable information (PII) from text for GDPR compliance"
}

func (r Redaction) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "RedactPII",
			Description: "Scans and redacts PII from conversation transcripts, customer messages, or any free text. Essential for data protection compliance and secure logging.",
			Params:      []schema.Param{str("freeText", "Free text content that may contain sensitive personal information like names, addresses, phone numbers, emails")},
			Invoke: func(_ context.Context, args schema.Args) (any, error) {
				text := args.String("freeText")
				redacted, kinds, count := redact(text)
				return map[string]any{
					"originalLength":  len([]rune(text)),
					"redactedText":    redacted,
					"redactedFields":  kinds,
					"redactionCount":  count,
					"complianceLevel": "GDPR_compliant",
				}, nil
			},
		},
		{
			Name:        "DetectPII",
			Description: "Check if text contains PII that needs redaction",
			Params:      []schema.Param{str("text", "Text to scan")},
			Invoke: func(_ context.Context, args schema.Args) (any, error) {
				_, kinds, count := redact(args.String("text"))
				risk, action := "none", "no_action"
				switch {
				case count > 2:
					risk, action = "high", "redaction_required"
				case count > 0:
					risk, action = "medium", "redaction_required"
				}
				return map[string]any{
					"containsPII":       count > 0,
					"detectedTypes":     kinds,
					"riskLevel":         risk,
					"recommendedAction": action,
				}, nil
			},
		},
	}
}

// redact applies every pattern and reports which kinds matched and how many
// substitutions were made.
func redact(text string) (string, []string, int) {
	kinds := []string{}
	count := 0
	for _, p := range piiPatterns {
		n := len(p.re.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		text = p.re.ReplaceAllString(text, p.replacement)
		kinds = append(kinds, p.kind)
		count += n
	}
	return text, kinds, count
}
