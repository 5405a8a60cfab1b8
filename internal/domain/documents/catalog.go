package documents

import "hrkyc/internal/domain/directory"

// Document types required of every employee. The slice order is the display
// order; List returns registry entries in exactly this order.
const (
	TypeAadhar            = "aadhar"
	TypePAN               = "pan"
	TypeTenthMarksheet    = "10th_marksheet"
	TypeTwelfthMarksheet  = "12th_marksheet"
	TypeUGDegree          = "ug_degree"
	TypePGDegree          = "pg_degree"
	TypeDiploma           = "diploma"
	TypeOtherCertificates = "other_certificates"
	TypeBankPassbook      = "bank_passbook"

	// TypeProfilePicture is tracked as a document row but is not part of
	// the KYC catalog; it only backs the avatar.
	TypeProfilePicture = directory.ProfilePictureType
)

var Catalog = []string{
	TypeAadhar,
	TypePAN,
	TypeTenthMarksheet,
	TypeTwelfthMarksheet,
	TypeUGDegree,
	TypePGDegree,
	TypeDiploma,
	TypeOtherCertificates,
	TypeBankPassbook,
}

func IsCatalogType(docType string) bool {
	for _, t := range Catalog {
		if t == docType {
			return true
		}
	}
	return false
}
