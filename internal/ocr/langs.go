package ocr

// allowedLanguages is Tesseract's language-pack code allow-list (spec
// §4.7.2 language validation: "checked against a fixed allow-list of
// 100+ codes"). Codes match Tesseract's tessdata naming convention.
var allowedLanguages = map[string]struct{}{
	"afr": {}, "amh": {}, "ara": {}, "asm": {}, "aze": {}, "aze_cyrl": {},
	"bel": {}, "ben": {}, "bod": {}, "bos": {}, "bre": {}, "bul": {}, "cat": {},
	"ceb": {}, "ces": {}, "chi_sim": {}, "chi_sim_vert": {}, "chi_tra": {},
	"chi_tra_vert": {}, "chr": {}, "cos": {}, "cym": {}, "dan": {}, "deu": {},
	"div": {}, "dzo": {}, "ell": {}, "eng": {}, "enm": {}, "epo": {}, "equ": {},
	"est": {}, "eus": {}, "fao": {}, "fas": {}, "fil": {}, "fin": {}, "fra": {},
	"frk": {}, "frm": {}, "fry": {}, "gla": {}, "gle": {}, "glg": {}, "grc": {},
	"guj": {}, "hat": {}, "heb": {}, "hin": {}, "hrv": {}, "hun": {}, "hye": {},
	"iku": {}, "ind": {}, "isl": {}, "ita": {}, "ita_old": {}, "jav": {},
	"jpn": {}, "jpn_vert": {}, "kan": {}, "kat": {}, "kat_old": {}, "kaz": {},
	"khm": {}, "kir": {}, "kmr": {}, "kor": {}, "kor_vert": {}, "lao": {},
	"lat": {}, "lav": {}, "lit": {}, "ltz": {}, "mal": {}, "mar": {}, "mkd": {},
	"mlt": {}, "mon": {}, "mri": {}, "msa": {}, "mya": {}, "nep": {}, "nld": {},
	"nor": {}, "oci": {}, "ori": {}, "osd": {}, "pan": {}, "pol": {}, "por": {},
	"pus": {}, "que": {}, "ron": {}, "rus": {}, "san": {}, "sin": {}, "slk": {},
	"slv": {}, "snd": {}, "spa": {}, "spa_old": {}, "sqi": {}, "srp": {},
	"srp_latn": {}, "sun": {}, "swa": {}, "swe": {}, "syr": {}, "tam": {},
	"tat": {}, "tel": {}, "tgk": {}, "tgl": {}, "tha": {}, "tir": {}, "ton": {},
	"tur": {}, "uig": {}, "ukr": {}, "urd": {}, "uzb": {}, "uzb_cyrl": {},
	"vie": {}, "yid": {}, "yor": {},
}

// LanguageCodes returns the allow-list, sorted, for diagnostics and
// ValidationError context.
func LanguageCodes() []string {
	out := make([]string, 0, len(allowedLanguages))
	for k := range allowedLanguages {
		out = append(out, k)
	}
	// simple insertion sort; the list is small and this avoids importing
	// sort for a single call site elsewhere too
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
