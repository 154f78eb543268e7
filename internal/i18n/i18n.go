package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultLocale 服务面向意大利 B2B 客户，默认意大利语
const DefaultLocale = "it"

var supportedLocales = map[string]bool{
	"it": true,
	"en": true,
}

var messages = map[string]map[string]string{
	"it": {
		"error.bad_request":            "Richiesta non valida",
		"error.unauthorized":           "Non autorizzato",
		"error.forbidden":              "Operazione non consentita",
		"error.not_found":              "Risorsa non trovata",
		"error.internal":               "Errore interno del server",
		"error.rate_limited":           "Troppe richieste, riprova tra %d secondi",
		"error.rate_limit_unavailable": "Servizio momentaneamente non disponibile",
		"error.auth_header_missing":    "Header di autenticazione mancante",
		"error.auth_header_invalid":    "Header di autenticazione non valido",
		"error.token_invalid":          "Token non valido o scaduto",
		"error.token_revoked":          "Token revocato, effettua di nuovo l'accesso",
		"error.jwt_secret_missing":     "Autenticazione non configurata",
		"error.user_id_invalid":        "Identità utente mancante",
		"error.user_id_type_invalid":   "Identità utente non valida",

		"error.invalid_credentials": "Credenziali non valide",
		"error.user_disabled":       "Account disabilitato",
		"error.invalid_password":    "Password attuale errata",
		"error.weak_password":       "La password non rispetta i requisiti",

		"error.password_min_length":      "La password deve contenere almeno %d caratteri",
		"error.password_require_upper":   "La password deve contenere una lettera maiuscola",
		"error.password_require_lower":   "La password deve contenere una lettera minuscola",
		"error.password_require_number":  "La password deve contenere una cifra",
		"error.password_require_special": "La password deve contenere un carattere speciale",

		"error.order_not_found":      "Ordine non trovato",
		"error.order_empty":          "L'ordine non contiene righe acquistabili",
		"error.quantity_invalid":     "Quantità non valida",
		"error.order_status_invalid": "Stato ordine non valido",
		"error.order_status_locked":  "Stato ordine non modificabile: commissioni già liquidate",
		"error.order_cancel_locked":  "Ordine non annullabile: commissioni già liquidate",
		"error.structure_invalid":    "Struttura di consegna non valida",

		"error.product_not_found":  "Prodotto non trovato",
		"error.product_inactive":   "Prodotto non disponibile",
		"error.category_not_found": "Categoria non trovata",

		"error.partner_not_found":      "Partner non trovato",
		"error.order_item_not_found":   "Riga ordine non trovata",
		"error.order_item_locked":      "Riga ordine già liquidata o assegnata a un pagamento",
		"error.item_status_invalid":    "Stato riga ordine non valido",
		"error.notification_not_found": "Notifica non trovata",

		"error.payout_not_found":            "Pagamento non trovato",
		"error.payout_period_invalid":       "Periodo di liquidazione non valido",
		"error.payout_nothing_to_liquidate": "Nessuna commissione da liquidare nel periodo",
		"error.payout_status_invalid":       "Transizione di stato del pagamento non consentita",
	},
	"en": {
		"error.bad_request":            "Invalid request",
		"error.unauthorized":           "Unauthorized",
		"error.forbidden":              "Operation not allowed",
		"error.not_found":              "Resource not found",
		"error.internal":               "Internal server error",
		"error.rate_limited":           "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable": "Service temporarily unavailable",
		"error.auth_header_missing":    "Missing authorization header",
		"error.auth_header_invalid":    "Invalid authorization header",
		"error.token_invalid":          "Invalid or expired token",
		"error.token_revoked":          "Token revoked, please sign in again",
		"error.jwt_secret_missing":     "Authentication not configured",
		"error.user_id_invalid":        "Missing user identity",
		"error.user_id_type_invalid":   "Invalid user identity",

		"error.invalid_credentials": "Invalid credentials",
		"error.user_disabled":       "Account disabled",
		"error.invalid_password":    "Current password is incorrect",
		"error.weak_password":       "Password does not meet the requirements",

		"error.password_min_length":      "Password must be at least %d characters long",
		"error.password_require_upper":   "Password must contain an uppercase letter",
		"error.password_require_lower":   "Password must contain a lowercase letter",
		"error.password_require_number":  "Password must contain a digit",
		"error.password_require_special": "Password must contain a special character",

		"error.order_not_found":      "Order not found",
		"error.order_empty":          "The order has no purchasable lines",
		"error.quantity_invalid":     "Invalid quantity",
		"error.order_status_invalid": "Invalid order status",
		"error.order_status_locked":  "Order status locked: commissions already liquidated",
		"error.order_cancel_locked":  "Order cannot be cancelled: commissions already liquidated",
		"error.structure_invalid":    "Invalid delivery structure",

		"error.product_not_found":  "Product not found",
		"error.product_inactive":   "Product not available",
		"error.category_not_found": "Category not found",

		"error.partner_not_found":      "Partner not found",
		"error.order_item_not_found":   "Order line not found",
		"error.order_item_locked":      "Order line already liquidated or assigned to a payout",
		"error.item_status_invalid":    "Invalid order line status",
		"error.notification_not_found": "Notification not found",

		"error.payout_not_found":            "Payout not found",
		"error.payout_period_invalid":       "Invalid payout period",
		"error.payout_nothing_to_liquidate": "No commissions to liquidate in the period",
		"error.payout_status_invalid":       "Payout status transition not allowed",
	},
}

// ResolveLocale 解析请求语言。优先级：lang 查询参数 > Accept-Language 头
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := normalizeLocale(c.Query("lang")); lang != "" {
		return lang
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang := normalizeLocale(tag); lang != "" {
			return lang
		}
	}
	return DefaultLocale
}

func normalizeLocale(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}
	if idx := strings.IndexByte(tag, '-'); idx > 0 {
		tag = tag[:idx]
	}
	if supportedLocales[tag] {
		return tag
	}
	return ""
}

// T 返回指定语言的文案，未配置时回退默认语言，最后回退 key 本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 返回带参数的文案
func Sprintf(locale, key string, args ...interface{}) string {
	template := T(locale, key)
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}
