package notify

// Template is a canned message offered to the frontend; Message may contain
// student tokens and free-form tokens the sender fills before composing.
type Template struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// DefaultFeeReminder is used when a fee-reminder send names no template.
var DefaultFeeReminder = FeeTemplates[0]

// FeeTemplates are fee-balance reminders; they only use student tokens.
var FeeTemplates = []Template{
	{
		Title: "Fee Balance Reminder",
		Message: "Dear parent of [StudentName], this is a reminder that [StudentName] has an outstanding fee balance " +
			"of KES [Balance]. Please clear the balance at your earliest convenience. Thank you.",
	},
	{
		Title: "Urgent Payment Notice",
		Message: "Dear parent of [StudentName] ([Class]), kindly settle the outstanding fee balance of KES [Balance] " +
			"immediately. Contact the school office for payment arrangements. Thank you.",
	},
	{
		Title: "Payment Deadline Notice",
		Message: "Dear parent, [StudentName] in [Class] has a fee balance of KES [Balance]. Payment deadline is " +
			"approaching. Please clear dues by end of week to avoid service interruption.",
	},
	{
		Title: "Partial Payment Request",
		Message: "Dear parent of [StudentName], your child has a fee balance of KES [Balance]. If full payment is " +
			"challenging, please visit the office to arrange a payment plan. We are here to help.",
	},
	{
		Title: "Term Fee Reminder",
		Message: "Dear parent of [StudentName] in [Class], term fees are due. Current balance: KES [Balance]. " +
			"Please ensure timely payment for uninterrupted learning. Thank you for your cooperation.",
	},
}

// GeneralTemplates are announcements; [Date], [Time], [Amount] and similar
// tokens are filled by the sender before composing.
var GeneralTemplates = []Template{
	{
		Title: "Term Opening Date",
		Message: "Dear parent of [StudentName] ([Class]), this is to inform you that school reopens on [Date]. " +
			"Students should report by 8:00 AM. Kindly ensure [StudentName] has all required materials. Thank you.",
	},
	{
		Title: "Term Closing Notice",
		Message: "Dear parent, [StudentName] ([Class]) will close for the term on [Date] at 12:00 PM. " +
			"Please arrange for timely pick-up. We wish you a wonderful holiday season!",
	},
	{
		Title: "School Event Reminder",
		Message: "Dear parent of [StudentName], we have an upcoming [EventName] on [Date] at [Time]. " +
			"All students in [Class] are required to attend. For more details, contact the school office.",
	},
	{
		Title: "Exam Fee Payment",
		Message: "Dear parent, [StudentName] ([Class]) is required to pay exam fees of KES [Amount] by [DeadlineDate]. " +
			"This covers examination materials and processing. Please clear payment before the deadline.",
	},
	{
		Title: "Parents Meeting",
		Message: "Dear parent, we have a parents meeting scheduled for [Date] at [Time]. We will discuss " +
			"[StudentName]'s progress in [Class] and other important matters. Your attendance is highly appreciated.",
	},
	{
		Title: "General Announcement",
		Message: "Dear parent of [StudentName] ([Class]), this is to inform you that [AnnouncementDetails]. " +
			"For more information, please contact the school office. Thank you.",
	},
}
