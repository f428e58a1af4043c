package flow

import (
	"strings"

	"github.com/m3rciful/postbot/internal/posts"
)

// Texts is a message catalog. Format verbs are documented per field.
type Texts struct {
	Denied       string
	ReviewerOnly string
	Failure      string
	NotFound     string
	Cancelled    string
	SlowDown     string

	Menu         string
	BtnUpload    string
	BtnList      string
	BtnEdit      string
	BtnDelete    string
	BtnReview    string
	BtnConfirm   string
	BtnCancel    string
	BtnSkipPhoto string
	BtnBack      string

	AskTitle      string
	AskText       string
	AskPhoto      string
	Created       string // %d id
	RepromptIdle  string
	RepromptPhoto string
	RepromptPick  string
	BadLength     string // %d max runes
	TitleTaken    string

	NoPosts     string
	PostsHeader string
	PickEdit    string
	PickDelete  string

	FieldMenu      string // %d id
	FieldNames     map[posts.Field]string
	AskNewTitle    string
	AskNewText     string
	AskNewPhoto    string
	BtnRemovePhoto string
	Updated        string // %d id

	ConfirmDelete string // %d id, %s title, %s token
	DeleteToken   string
	Deleted       string // %d id
	DeleteAborted string

	ChannelRetractFailed string
	ChannelPublishFailed string

	StatusNames    map[posts.Status]string
	ReviewList     string // %s status
	ReviewEmpty    string // %s status
	StatusLine     string // %s status
	NoteLine       string // %s note
	AuthorLine     string // %s author
	BtnApprove     string
	BtnReject      string
	BtnNeedsEdit   string
	BtnChange      string
	PickStatus     string // %d id
	AskNote        string
	ConfirmReview  string // %d id, %s status
	ReviewDone     string // %d id, %s status
	ReviewAborted  string
	NotifyPending  string // %d id, %s title, %s author
}

// English is the default catalog.
var English = Texts{
	Denied:       "🚫 You are not allowed to use this bot.",
	ReviewerOnly: "Only reviewers can do that.",
	Failure:      "❌ Something went wrong. Please start again.",
	NotFound:     "❌ There is no post with this number.",
	Cancelled:    "❌ Cancelled.",
	SlowDown:     "⏳ Too fast, please wait a moment.",

	Menu:         "🔘 Available options:",
	BtnUpload:    "➕ Upload post",
	BtnList:      "📚 View posts",
	BtnEdit:      "⚙️ Edit post",
	BtnDelete:    "🗑️ Delete post",
	BtnReview:    "🧐 Review posts",
	BtnConfirm:   "✅ Confirm",
	BtnCancel:    "❌ Cancel",
	BtnSkipPhoto: "⏭️ Skip",
	BtnBack:      "↩️ Back",

	AskTitle:      "📝 Send the post title:",
	AskText:       "📄 Send the post text:",
	AskPhoto:      "🖼️ Send a photo (optional). Send /skip to skip:",
	Created:       "✅ Post #%d saved and sent for review.",
	RepromptIdle:  "Use /start to see the available options.",
	RepromptPhoto: "🖼️ Please send a photo, or /skip.",
	RepromptPick:  "Please use the buttons above, or /cancel.",
	BadLength:     "⚠️ Please send between 1 and %d characters.",
	TitleTaken:    "⚠️ This title is already used. Pick a different one.",

	NoPosts:     "📭 There are no saved posts.",
	PostsHeader: "📚 <b>Saved posts:</b>",
	PickEdit:    "⚙️ Choose a post to edit:",
	PickDelete:  "🗑️ Choose a post to delete:",

	FieldMenu: "What do you want to change in post #%d?",
	FieldNames: map[posts.Field]string{
		posts.FieldTitle: "📝 Title",
		posts.FieldText:  "📄 Text",
		posts.FieldPhoto: "🖼️ Photo",
	},
	AskNewTitle:    "📝 Send the new title:",
	AskNewText:     "📄 Send the new text:",
	AskNewPhoto:    "🖼️ Send the new photo, or /skip to remove the current one:",
	BtnRemovePhoto: "🗑️ Remove photo",
	Updated:        "✅ Post #%d updated. It is pending review again.",

	ConfirmDelete: "🗑️ Delete post #%d «%s»?\nPress Confirm or type <code>%s</code>. Anything else cancels.",
	DeleteToken:   "delete",
	Deleted:       "🗑️ Post #%d deleted.",
	DeleteAborted: "Deletion cancelled. Nothing was changed.",

	ChannelRetractFailed: "⚠️ Could not remove the copy from the channel.",
	ChannelPublishFailed: "⚠️ Could not publish the post to the channel.",

	StatusNames: map[posts.Status]string{
		posts.StatusPending:   "⏳ pending",
		posts.StatusApproved:  "✅ approved",
		posts.StatusRejected:  "⛔ rejected",
		posts.StatusNeedsEdit: "✏️ needs edit",
	},
	ReviewList:    "🧐 Posts with status %s:",
	ReviewEmpty:   "📭 No posts with status %s.",
	StatusLine:    "Status: %s",
	NoteLine:      "Note: %s",
	AuthorLine:    "Author: %s",
	BtnApprove:    "✅ Approve",
	BtnReject:     "⛔ Reject",
	BtnNeedsEdit:  "✏️ Needs edit",
	BtnChange:     "🔁 Change status",
	PickStatus:    "Choose the new status for post #%d:",
	AskNote:       "✍️ What should be changed? Send a note for the author:",
	ConfirmReview: "Set post #%d to %s?",
	ReviewDone:    "✅ Post #%d is now %s.",
	ReviewAborted: "Nothing was changed.",
	NotifyPending: "🆕 Post #%d «%s» by %s is waiting for review.",
}

// Arabic mirrors English for Arabic-speaking teams.
var Arabic = Texts{
	Denied:       "🚫 لا تملك صلاحية استخدام هذا البوت.",
	ReviewerOnly: "هذا الإجراء متاح للمراجعين فقط.",
	Failure:      "❌ حدث خطأ. يرجى البدء من جديد.",
	NotFound:     "❌ لا يوجد منشور بهذا الرقم.",
	Cancelled:    "❌ تم الإلغاء.",
	SlowDown:     "⏳ بسرعة كبيرة، انتظر قليلًا.",

	Menu:         "🔘 الخيارات المتاحة:",
	BtnUpload:    "➕ رفع منشور",
	BtnList:      "📚 عرض منشورات",
	BtnEdit:      "⚙️ تعديل منشور",
	BtnDelete:    "🗑️ حذف منشور",
	BtnReview:    "🧐 مراجعة المنشورات",
	BtnConfirm:   "✅ تأكيد",
	BtnCancel:    "❌ إلغاء",
	BtnSkipPhoto: "⏭️ تخطي",
	BtnBack:      "↩️ رجوع",

	AskTitle:      "📝 أرسل عنوان المنشور:",
	AskText:       "📄 أرسل نص المنشور:",
	AskPhoto:      "🖼️ أرسل صورة (اختياري). أرسل /skip لتخطي:",
	Created:       "✅ تم حفظ المنشور #%d وإرساله للمراجعة.",
	RepromptIdle:  "استخدم /start لعرض الخيارات المتاحة.",
	RepromptPhoto: "🖼️ أرسل صورة، أو /skip للتخطي.",
	RepromptPick:  "استخدم الأزرار أعلاه، أو /cancel.",
	BadLength:     "⚠️ أرسل نصًا بين 1 و %d حرفًا.",
	TitleTaken:    "⚠️ هذا العنوان مستخدم من قبل. اختر عنوانًا مختلفًا.",

	NoPosts:     "📭 لا توجد منشورات محفوظة.",
	PostsHeader: "📚 <b>المنشورات المحفوظة:</b>",
	PickEdit:    "⚙️ اختر المنشور الذي تريد تعديله:",
	PickDelete:  "🗑️ اختر المنشور الذي تريد حذفه:",

	FieldMenu: "ماذا تريد أن تعدل في المنشور #%d؟",
	FieldNames: map[posts.Field]string{
		posts.FieldTitle: "📝 العنوان",
		posts.FieldText:  "📄 النص",
		posts.FieldPhoto: "🖼️ الصورة",
	},
	AskNewTitle:    "📝 أرسل العنوان الجديد:",
	AskNewText:     "📝 أرسل النص الجديد:",
	AskNewPhoto:    "🖼️ أرسل الصورة الجديدة، أو /skip لحذف الصورة الحالية:",
	BtnRemovePhoto: "🗑️ حذف الصورة",
	Updated:        "✅ تم تعديل المنشور #%d وأصبح بانتظار المراجعة.",

	ConfirmDelete: "🗑️ حذف المنشور #%d «%s»؟\nاضغط تأكيد أو اكتب <code>%s</code>. أي شيء آخر يلغي الحذف.",
	DeleteToken:   "حذف",
	Deleted:       "🗑️ تم حذف المنشور #%d بنجاح.",
	DeleteAborted: "تم إلغاء الحذف. لم يتغير شيء.",

	ChannelRetractFailed: "⚠️ لم أستطع حذف الرسالة من القناة.",
	ChannelPublishFailed: "⚠️ فشل في النشر في القناة.",

	StatusNames: map[posts.Status]string{
		posts.StatusPending:   "⏳ قيد المراجعة",
		posts.StatusApproved:  "✅ مقبول",
		posts.StatusRejected:  "⛔ مرفوض",
		posts.StatusNeedsEdit: "✏️ يحتاج تعديل",
	},
	ReviewList:    "🧐 المنشورات بحالة %s:",
	ReviewEmpty:   "📭 لا توجد منشورات بحالة %s.",
	StatusLine:    "الحالة: %s",
	NoteLine:      "ملاحظة: %s",
	AuthorLine:    "الكاتب: %s",
	BtnApprove:    "✅ قبول",
	BtnReject:     "⛔ رفض",
	BtnNeedsEdit:  "✏️ يحتاج تعديل",
	BtnChange:     "🔁 تغيير الحالة",
	PickStatus:    "اختر الحالة الجديدة للمنشور #%d:",
	AskNote:       "✍️ ما الذي يجب تعديله؟ أرسل ملاحظة للكاتب:",
	ConfirmReview: "تغيير حالة المنشور #%d إلى %s؟",
	ReviewDone:    "✅ أصبحت حالة المنشور #%d: %s.",
	ReviewAborted: "لم يتغير شيء.",
	NotifyPending: "🆕 المنشور #%d «%s» من %s بانتظار المراجعة.",
}

// TextsFor returns the catalog for a language code; unknown codes get English.
func TextsFor(lang string) *Texts {
	if strings.EqualFold(strings.TrimSpace(lang), "ar") {
		return &Arabic
	}
	return &English
}

func (tx *Texts) status(s posts.Status) string {
	if name, ok := tx.StatusNames[s]; ok {
		return name
	}
	return string(s)
}
