package i18n

import "github.com/hostara-cloud/internal/constants"

// messages 按语言维护的文案表，hi-IN 未覆盖的 key 回退 en-US。
var messages = map[string]map[string]string{
	constants.LocaleEnUS: {
		"error.bad_request":  "Invalid request",
		"error.unauthorized": "Unauthorized",
		"error.forbidden":    "Access denied",
		"error.save_failed":  "Failed to save",

		"error.auth_header_missing": "Authorization header missing",
		"error.auth_header_invalid": "Authorization header invalid",
		"error.token_invalid":       "Token is invalid or expired",
		"error.token_revoked":       "Token has been revoked",
		"error.jwt_secret_missing":  "Server authentication is misconfigured",

		"error.login_invalid":      "Incorrect email or password",
		"error.login_failed":       "Login failed, please try again later",
		"error.login_too_many":     "Too many login attempts, please try again later",
		"error.register_failed":    "Registration failed, please try again later",
		"error.email_invalid":      "Email address is invalid",
		"error.email_exists":       "Email address is already registered",
		"error.user_disabled":      "Account has been disabled",
		"error.user_not_found":     "User not found",
		"error.user_fetch_failed":  "Failed to load users",
		"error.user_update_failed": "Failed to update user",
		"error.user_id_invalid":    "User ID is invalid",
		"error.user_id_type_invalid": "User identity is invalid",
		"error.user_login_log_fetch_failed": "Failed to load login history",
		"error.referral_code_invalid":       "Referral code is invalid",

		"error.password_weak":            "Password is too weak",
		"error.password_min_length":      "Password must be at least %d characters",
		"error.password_require_upper":   "Password must contain an uppercase letter",
		"error.password_require_lower":   "Password must contain a lowercase letter",
		"error.password_require_number":  "Password must contain a digit",
		"error.password_require_special": "Password must contain a special character",
		"error.password_old_invalid":     "Current password is incorrect",
		"error.old_password_invalid":     "Current password is incorrect",
		"error.password_change_failed":   "Failed to change password",
		"error.profile_empty":            "Nothing to update",
		"error.profile_update_failed":    "Failed to update profile",

		"error.admin_login_invalid":          "Incorrect username or password",
		"error.admin_id_invalid":             "Admin ID is invalid",
		"error.admin_id_type_invalid":        "Admin identity is invalid",
		"error.admin_username_invalid":       "Admin username is invalid",
		"error.admin_username_exists":        "Admin username already exists",
		"error.admin_create_failed":          "Failed to create admin",
		"error.admin_update_failed":          "Failed to update admin",
		"error.admin_delete_failed":          "Failed to delete admin",
		"error.admin_delete_self_forbidden":  "You cannot delete your own account",
		"error.admin_delete_last_forbidden":  "The last admin account cannot be deleted",
		"error.admin_delete_protected":       "This admin account is protected",

		"error.captcha_required":        "Captcha is required",
		"error.captcha_invalid":         "Captcha verification failed",
		"error.captcha_unavailable":     "Captcha service is unavailable",
		"error.captcha_config_invalid":  "Captcha configuration is invalid",
		"error.captcha_verify_failed":   "Captcha verification failed",
		"error.captcha_generate_failed": "Failed to generate captcha",

		"error.config_fetch_failed":   "Failed to load configuration",
		"error.settings_fetch_failed": "Failed to load settings",
		"error.settings_save_failed":  "Failed to save settings",

		"error.plan_not_found":             "Plan not found",
		"error.plan_not_available":         "Plan is not available",
		"error.plan_exists":                "A plan with the same family and size already exists",
		"error.plan_id_invalid":            "Plan ID is invalid",
		"error.plan_fetch_failed":          "Failed to load plans",
		"error.plan_list_failed":           "Failed to load plans",
		"error.plan_save_failed":           "Failed to save plan",
		"error.plan_delete_failed":         "Failed to delete plan",
		"error.pricing_selection_invalid":  "The selected configuration is not available",
		"error.quote_failed":               "Failed to compute quote",

		"error.order_create_failed":     "Failed to create order",
		"error.order_fetch_failed":      "Failed to load orders",
		"error.order_not_found":         "Order not found",
		"error.order_id_invalid":        "Order ID is invalid",
		"error.order_status_invalid":    "Order status does not allow this operation",
		"error.order_cancel_failed":     "Failed to cancel order",
		"error.order_cancel_not_allowed": "Order can no longer be canceled",
		"error.order_update_failed":     "Failed to update order",
		"error.queue_unavailable":       "Background queue is unavailable, please try again later",

		"error.invoice_fetch_failed": "Failed to load invoices",
		"error.invoice_not_found":    "Invoice not found",
		"error.invoice_id_invalid":   "Invoice ID is invalid",

		"error.server_not_found":      "Server not found",
		"error.server_id_invalid":     "Server ID is invalid",
		"error.server_status_invalid": "Server status does not allow this operation",
		"error.server_fetch_failed":   "Failed to load servers",
		"error.server_update_failed":  "Failed to update server",
		"error.server_action_failed":  "Server operation failed",
		"error.renew_target_invalid":  "This server cannot be renewed",

		"error.ticket_not_found":     "Ticket not found",
		"error.ticket_id_invalid":    "Ticket ID is invalid",
		"error.ticket_closed":        "Ticket is closed",
		"error.ticket_create_failed": "Failed to create ticket",
		"error.ticket_fetch_failed":  "Failed to load tickets",
		"error.ticket_update_failed": "Failed to update ticket",
		"error.ticket_action_failed": "Ticket operation failed",

		"error.referral_stats_failed":    "Failed to load referral statistics",
		"error.referral_earnings_failed": "Failed to load referral earnings",
		"error.earning_fetch_failed":     "Failed to load referral earnings",
		"error.payout_below_minimum":     "Available balance is below the minimum payout amount",
		"error.payout_method_invalid":    "Payout method is not supported",
		"error.payout_details_incomplete": "Payout account details are incomplete",
		"error.payout_inflight_exists":   "A payout request is already in progress",
		"error.payout_request_failed":    "Failed to submit payout request",
		"error.payout_not_found":         "Payout request not found",
		"error.payout_id_invalid":        "Payout ID is invalid",
		"error.payout_status_invalid":    "Payout status does not allow this operation",
		"error.payout_fetch_failed":      "Failed to load payout requests",
		"error.payout_update_failed":     "Failed to update payout request",

		"error.dashboard_fetch_failed": "Failed to load dashboard data",

		"error.rate_limited":            "Too many requests, please slow down",
		"error.rate_limit_unavailable":  "Service is temporarily unavailable",
	},
	constants.LocaleHiIN: {
		"error.bad_request":  "अमान्य अनुरोध",
		"error.unauthorized": "अनधिकृत",
		"error.forbidden":    "अनुमति नहीं है",

		"error.login_invalid":   "ईमेल या पासवर्ड गलत है",
		"error.login_too_many":  "बहुत अधिक प्रयास, कृपया बाद में पुनः प्रयास करें",
		"error.email_invalid":   "ईमेल पता अमान्य है",
		"error.email_exists":    "यह ईमेल पहले से पंजीकृत है",
		"error.user_disabled":   "खाता निष्क्रिय कर दिया गया है",
		"error.referral_code_invalid": "रेफ़रल कोड अमान्य है",

		"error.captcha_required": "कैप्चा आवश्यक है",
		"error.captcha_invalid":  "कैप्चा सत्यापन विफल रहा",

		"error.plan_not_available":        "यह प्लान उपलब्ध नहीं है",
		"error.pricing_selection_invalid": "चुना गया कॉन्फ़िगरेशन उपलब्ध नहीं है",

		"error.order_not_found":          "ऑर्डर नहीं मिला",
		"error.order_cancel_not_allowed": "ऑर्डर अब रद्द नहीं किया जा सकता",

		"error.server_not_found":     "सर्वर नहीं मिला",
		"error.renew_target_invalid": "इस सर्वर का नवीनीकरण नहीं किया जा सकता",

		"error.ticket_not_found": "टिकट नहीं मिला",
		"error.ticket_closed":    "टिकट बंद है",

		"error.payout_below_minimum":      "उपलब्ध राशि न्यूनतम भुगतान सीमा से कम है",
		"error.payout_method_invalid":     "भुगतान विधि समर्थित नहीं है",
		"error.payout_details_incomplete": "भुगतान खाते का विवरण अधूरा है",
		"error.payout_inflight_exists":    "एक भुगतान अनुरोध पहले से लंबित है",

		"error.rate_limited": "बहुत अधिक अनुरोध, कृपया धीमे चलें",
	},
}
