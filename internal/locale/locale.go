// Package locale holds the user-facing texts of the bot.
package locale

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a localized text.
type Key string

const (
	KeyWelcomeGroup       Key = "welcome_group"
	KeyWelcomePrivate     Key = "welcome_private"
	KeyCheckButton        Key = "check_button"
	KeyGroupRestriction   Key = "group_restriction"
	KeyAccessGranted      Key = "access_granted"
	KeyAccessGrantedGroup Key = "access_granted_group"
	KeyStillNotEnough     Key = "still_not_enough"
	KeyNotYourButton      Key = "not_your_button"
	KeyAdminOnly          Key = "admin_only"
	KeyInvalidRange       Key = "invalid_range"
	KeySetRequiredUsage   Key = "set_required_usage"
	KeyRequiredUpdated    Key = "required_updated"
	KeyGrandfathered      Key = "grandfathered"
	KeyGroupStatus        Key = "group_status"
	KeyBotAdded           Key = "bot_added"
	KeyHelp               Key = "help"
	KeyReplyQuota         Key = "reply_quota"
	KeyAIError            Key = "ai_error"
	KeyDatabaseError      Key = "database_error"
	KeyPermissionError    Key = "permission_error"
	KeyGeneralError       Key = "general_error"
)

// supported lists the catalog languages, the first one is the fallback.
var supported = []language.Tag{language.Uzbek, language.English}

var texts = map[language.Tag]map[Key]string{
	language.Uzbek: {
		KeyWelcomeGroup: "⚠️ %[1]s, Guruhda yozish uchun %[2]d ta odam qo'shishingiz kerak.\n\n" +
			"Hozirda: %[3]d ta\nKerak: %[4]d ta",
		KeyWelcomePrivate: "Assalomu alaykum! Guruhda xabar yuborish uchun siz %[1]d ta yangi foydalanuvchi " +
			"taklif qilishingiz kerak.\n\nHozirda siz %[2]d ta foydalanuvchi qo'shdingiz.\n" +
			"Yana %[3]d ta foydalanuvchi qo'shing.\n\n" +
			"Yetarlicha foydalanuvchi qo'shganingizdan so'ng, quyidagi tugmani bosing.",
		KeyCheckButton: "Men yetarlicha foydalanuvchi qo'shdim",
		KeyGroupRestriction: "%[1]s, siz xabar yuborish uchun yetarlicha foydalanuvchi qo'shmadingiz. " +
			"Siz %[2]d ta foydalanuvchi qo'shdingiz, yana %[3]d ta qo'shing.",
		KeyAccessGranted:      "Tabriklaymiz! Endi siz guruhda xabar yuborishingiz mumkin. 🎉",
		KeyAccessGrantedGroup: "✅ %[1]s, endi guruhda xabar yuborishingiz mumkin.",
		KeyStillNotEnough: "Siz hali ham yetarlicha foydalanuvchi qo'shmadingiz. " +
			"Yana %[1]d ta foydalanuvchi qo'shing.",
		KeyNotYourButton:    "Bu tugma siz uchun emas.",
		KeyAdminOnly:        "Bu buyruq faqat guruh administratorlari uchun mo'ljallangan.",
		KeyInvalidRange:     "Iltimos, 1 dan 20 gacha bo'lgan son kiriting.",
		KeySetRequiredUsage: "Foydalanish: /set_required_users (son)",
		KeyRequiredUpdated: "Guruh sozlamalari yangilandi. Endi yangi foydalanuvchilar %[1]d ta " +
			"odam taklif qilishlari kerak.",
		KeyGrandfathered: "Mavjud a'zolar cheklovdan ozod qilindi: %[1]d ta.",
		KeyGroupStatus: "Guruh holati:\n\nKerak: %[1]d ta taklif\nCheklangan a'zolar: %[2]d ta\n" +
			"Oxirgi yangilanish: %[3]s",
		KeyBotAdded: "Salom! Guruhda yozish uchun har bir yangi a'zo %[1]d ta odam taklif qilishi kerak. " +
			"Bot to'g'ri ishlashi uchun uni administrator qiling.",
		KeyHelp: "Mavjud buyruqlar:\n\n" +
			"/set_required_users (son) - Taklif qilinishi kerak bo'lgan foydalanuvchilar sonini " +
			"o'rnatish (1-20)\n" +
			"/grandfather_existing - Mavjud a'zolarni cheklovdan ozod qilish\n" +
			"/status - Guruh holati\n" +
			"/help - Yordam\n\n" +
			"Guruhga yangi a'zolar qo'shish uchun do'stlaringizni taklif qiling!",
		KeyReplyQuota:      "%[1]s, siz juda ko'p savol berdingiz. Keyinroq urinib ko'ring.",
		KeyAIError:         "ChatGPT xizmati hozirda ishlamayapti, keyinroq urinib ko'ring.",
		KeyDatabaseError:   "Ma'lumotlar bazasida xatolik yuz berdi. Iltimos, keyinroq urinib ko'ring.",
		KeyPermissionError: "Botda yetarli huquqlar yo'q. Iltimos, botni administrator qiling.",
		KeyGeneralError:    "Xatolik yuz berdi. Iltimos, keyinroq urinib ko'ring.",
	},
	language.English: {
		KeyWelcomeGroup: "⚠️ %[1]s, you need to add %[2]d people to write in this group.\n\n" +
			"Current: %[3]d\nRequired: %[4]d",
		KeyWelcomePrivate: "Hello! To send messages in the group you need to invite %[1]d new members.\n\n" +
			"You have added %[2]d so far.\nAdd %[3]d more.\n\n" +
			"Once you have added enough members, press the button below.",
		KeyCheckButton: "I have added enough members",
		KeyGroupRestriction: "%[1]s, you have not added enough members to send messages. " +
			"You added %[2]d, add %[3]d more.",
		KeyAccessGranted:      "Congratulations! You can now send messages in the group. 🎉",
		KeyAccessGrantedGroup: "✅ %[1]s, you can now send messages in the group.",
		KeyStillNotEnough:     "You still have not added enough members. Add %[1]d more.",
		KeyNotYourButton:      "This button is not for you.",
		KeyAdminOnly:          "This command is only available to group administrators.",
		KeyInvalidRange:       "Please enter a number from 1 to 20.",
		KeySetRequiredUsage:   "Usage: /set_required_users (number)",
		KeyRequiredUpdated:    "Group settings updated. New members now need to invite %[1]d people.",
		KeyGrandfathered:      "Existing members exempted from the restriction: %[1]d.",
		KeyGroupStatus: "Group status:\n\nRequired: %[1]d invites\nRestricted members: %[2]d\n" +
			"Last update: %[3]s",
		KeyBotAdded: "Hello! Every new member needs to invite %[1]d people to write in this group. " +
			"Make the bot an administrator so it can work.",
		KeyHelp: "Available commands:\n\n" +
			"/set_required_users (number) - Set how many members must be invited (1-20)\n" +
			"/grandfather_existing - Exempt current members from the restriction\n" +
			"/status - Group status\n" +
			"/help - Help\n\n" +
			"Invite your friends to add new members to the group!",
		KeyReplyQuota:      "%[1]s, you have asked too many questions. Try again later.",
		KeyAIError:         "The ChatGPT service is not available right now, try again later.",
		KeyDatabaseError:   "A database error occurred. Please try again later.",
		KeyPermissionError: "The bot lacks the required rights. Please make it an administrator.",
		KeyGeneralError:    "An error occurred. Please try again later.",
	},
}

// Localizer renders texts in one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New creates a localizer for the given language code. Unknown languages
// fall back to Uzbek.
func New(lang string) (*Localizer, error) {
	builder := catalog.NewBuilder(catalog.Fallback(supported[0]))

	for tag, entries := range texts {
		for key, text := range entries {
			if err := builder.SetString(tag, string(key), text); err != nil {
				return nil, fmt.Errorf("failed to register %s text %q: %w", tag, key, err)
			}
		}
	}

	tag := match(lang)

	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}, nil
}

// Language returns the language the localizer renders.
func (l *Localizer) Language() language.Tag {
	return l.tag
}

// Text renders the text for key with the given arguments.
func (l *Localizer) Text(key Key, args ...any) string {
	return l.printer.Sprintf(string(key), args...)
}

// match picks the supported language closest to lang.
func match(lang string) language.Tag {
	requested, err := language.Parse(lang)
	if err != nil {
		return supported[0]
	}

	_, index, confidence := language.NewMatcher(supported).Match(requested)
	if confidence == language.No {
		return supported[0]
	}

	return supported[index]
}
