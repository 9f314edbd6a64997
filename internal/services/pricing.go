package services

// coarse localization of the membership offer, not a tax engine
const localCountry = "TR"

type buyerDefaults struct {
	Name           string
	Surname        string
	GsmNumber      string
	IdentityNumber string
	City           string
	Country        string
	Address        string
	ZipCode        string
}

type offer struct {
	Currency string
	Price    string
	Locale   string
	ItemName string
	Buyer    buyerDefaults
}

func offerFor(country string) offer {
	if country == localCountry {
		return offer{
			Currency: "TRY",
			Price:    "3970.00",
			Locale:   "tr",
			ItemName: "Premium Üyelik",
			Buyer: buyerDefaults{
				Name:           "Ali",
				Surname:        "Yılmaz",
				GsmNumber:      "+905350000000",
				IdentityNumber: "11111111111",
				City:           "Istanbul",
				Country:        "Turkey",
				Address:        "Nidakule Göztepe, Merdivenköy Mah. Bora Sok. No:1",
				ZipCode:        "34732",
			},
		}
	}
	return offer{
		Currency: "EUR",
		Price:    "79.99",
		Locale:   "en",
		ItemName: "Premium Membership",
		Buyer: buyerDefaults{
			Name:           "John",
			Surname:        "Doe",
			GsmNumber:      "+10000000000",
			IdentityNumber: "00000000000",
			City:           "New York",
			Country:        "United States",
			Address:        "123 Main Street",
			ZipCode:        "10001",
		},
	}
}
