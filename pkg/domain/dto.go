package domain

// Read-side DTO shapes served by the query API. Field names mirror the
// client snapshot format so exported and served documents line up.

type UserDTO struct {
	UserID          int64  `json:"userId"`
	Name            string `json:"name"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	DisplayInitials string `json:"displayInitials"`
	Active          bool   `json:"active"`
	Type            string `json:"type"`
	Color           string `json:"color"`
}

type MessageDateDTO struct {
	DisplayDate                     string `json:"displayDate"`
	DisplayTime                     string `json:"displayTime"`
	DateTime                        string `json:"dateTime"`
	ThreeCharMonthWeekdayTimeNoYear string `json:"threeCharMonthWeekdayTimeNoYear"`
}

type RecipientDTO struct {
	User UserDTO `json:"user"`
}

type MessageListItemDTO struct {
	ID         int64          `json:"id"`
	Folder     int64          `json:"folder"`
	Subject    string         `json:"subject"`
	Preview    string         `json:"preview"`
	Files      int            `json:"files"`
	Read       bool           `json:"read"`
	Replied    bool           `json:"replied"`
	Draft      bool           `json:"draft"`
	CanReply   bool           `json:"canReply"`
	Author     UserDTO        `json:"author"`
	Date       MessageDateDTO `json:"date"`
	Recipients []RecipientDTO `json:"recipients"`
}

type AttachmentDTO struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type MessageDetailDTO struct {
	ID          int64           `json:"id"`
	Folder      int64           `json:"folder"`
	Subject     string          `json:"subject"`
	Body        string          `json:"body"`
	Preview     string          `json:"preview"`
	Files       int             `json:"files"`
	Read        bool            `json:"read"`
	Replied     bool            `json:"replied"`
	Draft       bool            `json:"draft"`
	CanReply    bool            `json:"canReply"`
	Author      UserDTO         `json:"author"`
	Date        MessageDateDTO  `json:"date"`
	Recipients  []RecipientDTO  `json:"recipients"`
	Attachments []AttachmentDTO `json:"attachments"`
}

type MessagesPageDTO struct {
	Data          []MessageListItemDTO `json:"data"`
	Page          int                  `json:"page"`
	Size          int                  `json:"size"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
}

type FolderDTO struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	FolderType         string `json:"folderType"`
	FolderOrder        int    `json:"folderOrder"`
	UnreadMessageCount int64  `json:"unreadMessageCount"`
	TotalMessageCount  int64  `json:"totalMessageCount"`
}

type FoldersResponseDTO struct {
	SystemFolders []FolderDTO `json:"systemFolders"`
	UserFolders   []FolderDTO `json:"userFolders"`
}
