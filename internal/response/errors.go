package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Assessment-specific ───────────────────────────────────────────
	ErrInvalidGrade      ErrCode = "INVALID_GRADE"
	ErrInvalidCategory   ErrCode = "INVALID_CATEGORY"
	ErrWrongPhase        ErrCode = "WRONG_PHASE"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrInvalidAnswer     ErrCode = "INVALID_ANSWER"
	ErrAdaptiveEngine    ErrCode = "ADAPTIVE_ENGINE_ERROR"
	ErrSubmissionFailed  ErrCode = "SUBMISSION_FAILED"
	ErrNoActiveSession   ErrCode = "NO_ACTIVE_ASSESSMENT"
	ErrResultUnavailable ErrCode = "RESULT_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "NISN atau kata sandi salah."
	case ErrSessionActive:
		return "Anda sudah login di perangkat lain."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan login kembali."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Data yang dikirim tidak valid."
	case ErrInvalidID:
		return "Format ID tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."

	// ─── Assessment-specific ───────────────────────────────────────────
	case ErrInvalidGrade:
		return "Tingkat kelas tidak valid."
	case ErrInvalidCategory:
		return "Kategori jurusan tidak valid."
	case ErrWrongPhase:
		return "Operasi ini tidak tersedia pada tahap asesmen saat ini."
	case ErrNoQuestions:
		return "Soal asesmen belum tersedia. Silakan coba lagi nanti."
	case ErrInvalidAnswer:
		return "Format jawaban tidak valid untuk tipe soal ini."
	case ErrAdaptiveEngine:
		return "Layanan soal adaptif sedang tidak tersedia. Silakan coba lagi."
	case ErrSubmissionFailed:
		return "Pengiriman hasil asesmen gagal. Jawaban Anda aman, silakan coba kirim ulang."
	case ErrNoActiveSession:
		return "Tidak ada sesi asesmen yang sedang berjalan."
	case ErrResultUnavailable:
		return "Hasil asesmen tidak ditemukan."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan pada server."

	default:
		return "Terjadi kesalahan."
	}
}
