package domain

import "errors"

// Supported user-facing languages.
const (
	LangSpanish = "es"
	LangEnglish = "en"

	// DefaultLang is the language the application ships with.
	DefaultLang = LangSpanish
)

// DetailsQueued marks an ErrOffline returned for a write that was queued.
const DetailsQueued = "queued for sync"

type message struct {
	es string
	en string
}

var userMessages = map[string]message{
	ErrNotAuthenticated.Code: {
		es: "Usuario no autenticado. Debes iniciar sesión para continuar.",
		en: "You are not signed in. Please sign in to continue.",
	},
	ErrInvalidCredentials.Code: {
		es: "Email o contraseña incorrectos.",
		en: "Incorrect email or password.",
	},
	ErrAlreadyRegistered.Code: {
		es: "Este email ya está registrado. Intenta iniciar sesión.",
		en: "This email is already registered. Try signing in.",
	},
	ErrInvalidEmail.Code: {
		es: "El formato del email no es válido.",
		en: "The email format is invalid.",
	},
	ErrMissingArgument.Code: {
		es: "Falta un dato obligatorio.",
		en: "A required value is missing.",
	},
	ErrInvalidArgument.Code: {
		es: "Algún dato no es válido.",
		en: "Some input is invalid.",
	},
	ErrNotConfigured.Code: {
		es: "El servicio de datos no está configurado.",
		en: "The data service is not configured.",
	},
	ErrOffline.Code: {
		es: "Sin conexión a internet. No se pueden cargar los datos.",
		en: "No internet connection. Data cannot be loaded.",
	},
	ErrBackendRejected.Code: {
		es: "El servidor rechazó la operación.",
		en: "The server rejected the operation.",
	},
	ErrNotFound.Code: {
		es: "No se encontró el registro.",
		en: "The record was not found.",
	},
	ErrInternal.Code: {
		es: "Error interno.",
		en: "Internal error.",
	},
}

var offlineQueued = message{
	es: "Sin conexión a internet. Los datos se guardarán cuando vuelvas a estar en línea.",
	en: "No internet connection. Your data will be saved when you are back online.",
}

// UserMessage returns the localized, user-facing text for err.
// Unknown languages fall back to DefaultLang; errors that are not
// DomainErrors return err.Error().
func UserMessage(err error, lang string) string {
	if err == nil {
		return ""
	}

	var de *DomainError
	if !errors.As(err, &de) {
		return err.Error()
	}

	m, ok := userMessages[de.Code]
	if de.Code == ErrOffline.Code && de.Details == DetailsQueued {
		m, ok = offlineQueued, true
	}
	if !ok {
		return de.Error()
	}

	if lang == LangEnglish {
		return m.en
	}
	return m.es
}
