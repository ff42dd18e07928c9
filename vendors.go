package nandps

const jedecMicron = 0x2C

type onDieParams struct {
	name string
}

// Micron parts that switch on-die ECC through feature 0x90.
//   - [Micron TN-29-45|On-Die ECC]
var knownOnDie = map[[2]byte]onDieParams{
	// 1Gb
	{jedecMicron, 0xF1}: {name: "Micron MT29F1G08ABADA"},
	{jedecMicron, 0xA1}: {name: "Micron MT29F1G08ABBDA"},
	{jedecMicron, 0xB1}: {name: "Micron MT29F1G16ABBDA"},

	// 2Gb
	{jedecMicron, 0xAA}: {name: "Micron MT29F2G08ABBEA"},
	{jedecMicron, 0xBA}: {name: "Micron MT29F2G16ABBEA"},
	{jedecMicron, 0xDA}: {name: "Micron MT29F2G08ABAEA"},
	{jedecMicron, 0xCA}: {name: "Micron MT29F2G16ABAEA"},

	// 4Gb
	{jedecMicron, 0xAC}: {name: "Micron MT29F4G08ABBDA"},
	{jedecMicron, 0xBC}: {name: "Micron MT29F4G16ABBDA"},
	{jedecMicron, 0xDC}: {name: "Micron MT29F4G08ABADA"},
	{jedecMicron, 0xCC}: {name: "Micron MT29F4G16ABADA"},

	// 8Gb
	{jedecMicron, 0xA3}: {name: "Micron MT29F8G08ADBDA"},
	{jedecMicron, 0xB3}: {name: "Micron MT29F8G16ADBDA"},
	{jedecMicron, 0xD3}: {name: "Micron MT29F8G08ADADA"},
	{jedecMicron, 0xC3}: {name: "Micron MT29F8G16ADADA"},
}
