package quiz

// fallbackSet is the built-in general knowledge quiz used whenever the
// external provider fails or returns a malformed set. Ten questions,
// same shape as generated ones.
var fallbackSet = []Question{
	{
		Text: "Apa ibu kota Indonesia?",
		Options: []Option{
			{Label: "A", Text: "Jakarta"},
			{Label: "B", Text: "Surabaya"},
			{Label: "C", Text: "Bandung"},
			{Label: "D", Text: "Medan"},
		},
		CorrectLabel: "A",
	},
	{
		Text: "Planet manakah yang dikenal sebagai planet merah?",
		Options: []Option{
			{Label: "A", Text: "Venus"},
			{Label: "B", Text: "Mars"},
			{Label: "C", Text: "Jupiter"},
			{Label: "D", Text: "Saturnus"},
		},
		CorrectLabel: "B",
	},
	{
		Text: "Berapa jumlah pemain dalam satu tim sepak bola?",
		Options: []Option{
			{Label: "A", Text: "9"},
			{Label: "B", Text: "10"},
			{Label: "C", Text: "11"},
			{Label: "D", Text: "12"},
		},
		CorrectLabel: "C",
	},
	{
		Text: "Siapa presiden pertama Republik Indonesia?",
		Options: []Option{
			{Label: "A", Text: "Soeharto"},
			{Label: "B", Text: "B.J. Habibie"},
			{Label: "C", Text: "Mohammad Hatta"},
			{Label: "D", Text: "Soekarno"},
		},
		CorrectLabel: "D",
	},
	{
		Text: "Apa nama samudra terluas di dunia?",
		Options: []Option{
			{Label: "A", Text: "Samudra Pasifik"},
			{Label: "B", Text: "Samudra Atlantik"},
			{Label: "C", Text: "Samudra Hindia"},
			{Label: "D", Text: "Samudra Arktik"},
		},
		CorrectLabel: "A",
	},
	{
		Text: "Gas apakah yang paling banyak terkandung dalam atmosfer bumi?",
		Options: []Option{
			{Label: "A", Text: "Oksigen"},
			{Label: "B", Text: "Nitrogen"},
			{Label: "C", Text: "Karbon dioksida"},
			{Label: "D", Text: "Hidrogen"},
		},
		CorrectLabel: "B",
	},
	{
		Text: "Candi Borobudur terletak di provinsi mana?",
		Options: []Option{
			{Label: "A", Text: "Jawa Timur"},
			{Label: "B", Text: "DI Yogyakarta"},
			{Label: "C", Text: "Jawa Tengah"},
			{Label: "D", Text: "Jawa Barat"},
		},
		CorrectLabel: "C",
	},
	{
		Text: "Berapa hasil dari 12 x 12?",
		Options: []Option{
			{Label: "A", Text: "124"},
			{Label: "B", Text: "142"},
			{Label: "C", Text: "122"},
			{Label: "D", Text: "144"},
		},
		CorrectLabel: "D",
	},
	{
		Text: "Hewan apakah yang dijuluki raja hutan?",
		Options: []Option{
			{Label: "A", Text: "Singa"},
			{Label: "B", Text: "Harimau"},
			{Label: "C", Text: "Gajah"},
			{Label: "D", Text: "Beruang"},
		},
		CorrectLabel: "A",
	},
	{
		Text: "Apa nama mata uang Jepang?",
		Options: []Option{
			{Label: "A", Text: "Won"},
			{Label: "B", Text: "Yen"},
			{Label: "C", Text: "Yuan"},
			{Label: "D", Text: "Baht"},
		},
		CorrectLabel: "B",
	},
}

// FallbackSet returns a copy of the built-in question set so callers can
// never mutate the shared backing data.
func FallbackSet() []Question {
	out := make([]Question, len(fallbackSet))
	copy(out, fallbackSet)
	for i := range out {
		opts := make([]Option, len(out[i].Options))
		copy(opts, out[i].Options)
		out[i].Options = opts
	}
	return out
}
